package usecase

import (
	"context"
	"errors"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

type ProfileOutput struct {
	User *entity.User
	// SessionID is set when the session expiry moved and the cookie should be re-sent.
	SessionID string
}

// Profile returns the live identity behind the caller's session.
func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, authError(err, "Failed to fetch user")
	}

	return auth.output(auth.User), nil
}

func (a *authenticated) output(user *entity.User) *ProfileOutput {
	out := &ProfileOutput{User: user}
	if a.Extended {
		out.SessionID = a.Session.ID
	}
	return out
}

// authError passes authentication rejections through and wraps store failures.
func authError(err error, msg string) error {
	var gerr *goerror.Error
	if errors.As(err, &gerr) && gerr.Code() == goerror.CodeUnauthorized {
		return err
	}
	return goerror.NewServer(err, msg)
}
