package inbound

import (
	"net/http"
	"time"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
)

type RequestOTPRequest struct {
	Email string `json:"email"`
}

type RequestOTPResponse struct{}

func (RequestOTPResponse) Message() string {
	return "OTP sent to your email"
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	User UserResponse `json:"user"`

	cookie *http.Cookie
}

func (VerifyOTPResponse) Message() string {
	return "Login successful"
}

func (r VerifyOTPResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{r.cookie}
}

type LogoutResponse struct {
	cookie *http.Cookie
}

func (LogoutResponse) Message() string {
	return "Logged out successfully"
}

func (r LogoutResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{r.cookie}
}

type UserResponse struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       *string   `json:"firstName"`
	LastName        *string   `json:"lastName"`
	ProfileImageURL *string   `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func newUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		ProfileImageURL: u.ProfileImageURL,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// ProfileResponse is the live user, flattened into the envelope. cookie is
// set when a rolling session moved its expiry.
type ProfileResponse struct {
	UserResponse

	cookie *http.Cookie
}

func (r ProfileResponse) Cookies() []*http.Cookie {
	if r.cookie == nil {
		return nil
	}
	return []*http.Cookie{r.cookie}
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type ProfileDeleteResponse struct {
	cookie *http.Cookie
}

func (ProfileDeleteResponse) Message() string {
	return "User deleted"
}

func (r ProfileDeleteResponse) Cookies() []*http.Cookie {
	return []*http.Cookie{r.cookie}
}
