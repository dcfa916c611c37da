package inbound

import (
	"context"
	"net/http"

	"github.com/shandysiswandi/passwordless/internal/identity/usecase"
	"github.com/shandysiswandi/passwordless/internal/pkg/router"
)

type uc interface {
	RequestOTP(ctx context.Context, in usecase.RequestOTPInput) error
	VerifyOTP(ctx context.Context, in usecase.VerifyOTPInput) (*usecase.VerifyOTPOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) (*usecase.ProfileOutput, error)
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) (*usecase.ProfileOutput, error)
	ProfileDelete(ctx context.Context) error
}

type cookieCodec interface {
	Cookie(sid string) (*http.Cookie, error)
	Clear() *http.Cookie
}

func RegisterHTTPEndpoint(r *router.Router, uc uc, codec cookieCodec) {
	end := &HTTPEndpoint{uc: uc, codec: codec}

	// Passwordless login
	r.POST("/auth/request-otp", end.RequestOTP)
	r.POST("/auth/verify-otp", end.VerifyOTP)
	r.POST("/auth/logout", end.Logout)

	// Current user (need session)
	r.GET("/auth/user", end.Profile)
	r.PUT("/auth/user", end.ProfileUpdate)
	r.PUT("/auth/user/avatar", end.ProfileUpdateAvatar)
	r.DELETE("/auth/user", end.ProfileDelete)
}
