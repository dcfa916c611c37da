package inbound

import (
	"log/slog"

	"github.com/shandysiswandi/passwordless/internal/identity/usecase"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/router"
	"github.com/shandysiswandi/passwordless/internal/pkg/session"
)

// HTTPEndpoint exposes HTTP handlers for the passwordless login and the current user.
type HTTPEndpoint struct {
	uc    uc
	codec cookieCodec
}

// RequestOTP sends a one-time code to the given email.
// @Summary Request login code
// @Description Generates a one-time code for the email and delivers it. A new request replaces any pending code.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RequestOTPRequest true "Request code payload"
// @Success 200 {object} RequestOTPResponse "OTP sent to your email"
// @Failure 400 {object} router.errorResponse "Valid email required"
// @Failure 500 {object} router.errorResponse "Failed to send OTP"
// @Router /auth/request-otp [post]
func (h *HTTPEndpoint) RequestOTP(r *router.Request) (any, error) {
	var req RequestOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.RequestOTP(r.Context(), usecase.RequestOTPInput{Email: req.Email}); err != nil {
		return nil, err
	}

	return RequestOTPResponse{}, nil
}

// VerifyOTP exchanges a valid code for a session cookie.
// @Summary Verify login code
// @Description Checks the code, creates the user on first login and starts a session.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify code payload"
// @Success 200 {object} VerifyOTPResponse "Login successful"
// @Header 200 {string} Set-Cookie "connect.sid session cookie"
// @Failure 400 {object} router.errorResponse "Email and OTP required, OTP not found or expired, OTP expired, Too many failed attempts or Invalid OTP"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /auth/verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{Email: req.Email, Code: req.OTP})
	if err != nil {
		return nil, err
	}

	ck, err := h.codec.Cookie(resp.Session.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to sign session cookie", "user_id", resp.User.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return VerifyOTPResponse{User: newUserResponse(resp.User), cookie: ck}, nil
}

// Logout destroys the current session.
// @Summary Logout
// @Description Destroys the caller's session and clears the cookie. Succeeds without a session.
// @Tags Auth
// @Produce json
// @Success 200 {object} LogoutResponse "Logged out successfully"
// @Failure 500 {object} router.errorResponse "Logout failed"
// @Router /auth/logout [post]
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	if err := h.uc.Logout(r.Context(), usecase.LogoutInput{SessionID: session.GetID(r.Context())}); err != nil {
		return nil, err
	}

	return LogoutResponse{cookie: h.codec.Clear()}, nil
}

// Profile returns the user behind the session cookie.
// @Summary Current user
// @Description Returns the live user record. The session snapshot is never used.
// @Tags Auth, User
// @Security SessionCookie
// @Produce json
// @Success 200 {object} ProfileResponse "Current user"
// @Failure 401 {object} router.errorResponse "Unauthorized or User not found"
// @Failure 500 {object} router.errorResponse "Failed to fetch user"
// @Router /auth/user [get]
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return h.profileResponse(r, resp), nil
}

// ProfileUpdate changes the current user's name.
// @Summary Update current user
// @Description Updates firstName and lastName. Omitted fields are left unchanged.
// @Tags User
// @Security SessionCookie
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile payload"
// @Success 200 {object} ProfileResponse "Updated user"
// @Failure 400 {object} router.errorResponse "Invalid request body or Validation error"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Failed to update user"
// @Router /auth/user [put]
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req UpdateProfileRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, err
	}

	return h.profileResponse(r, resp), nil
}

// ProfileUpdateAvatar uploads a new avatar image.
// @Summary Update avatar
// @Description Stores a png, jpeg or webp image and sets profileImageUrl.
// @Tags User
// @Security SessionCookie
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} ProfileResponse "Updated user"
// @Failure 400 {object} router.errorResponse "Invalid request body or Validation error"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Failed to update avatar"
// @Router /auth/user/avatar [put]
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, contentType, err := r.StreamSingleFile("avatar")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	resp, err := h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{
		File:        file,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	return h.profileResponse(r, resp), nil
}

// ProfileDelete removes the current user.
// @Summary Delete current user
// @Description Deletes the user and the current session. Other sessions of the user stop authenticating.
// @Tags User
// @Security SessionCookie
// @Produce json
// @Success 200 {object} ProfileDeleteResponse "User deleted"
// @Failure 401 {object} router.errorResponse "Unauthorized"
// @Failure 500 {object} router.errorResponse "Failed to delete user"
// @Router /auth/user [delete]
func (h *HTTPEndpoint) ProfileDelete(r *router.Request) (any, error) {
	if err := h.uc.ProfileDelete(r.Context()); err != nil {
		return nil, err
	}

	return ProfileDeleteResponse{cookie: h.codec.Clear()}, nil
}

func (h *HTTPEndpoint) profileResponse(r *router.Request, out *usecase.ProfileOutput) ProfileResponse {
	resp := ProfileResponse{UserResponse: newUserResponse(out.User)}
	if out.SessionID == "" {
		return resp
	}

	ck, err := h.codec.Cookie(out.SessionID)
	if err != nil {
		slog.WarnContext(r.Context(), "failed to re-sign extended session cookie", "user_id", out.User.ID, "error", err)
		return resp
	}
	resp.cookie = ck
	return resp
}
