package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/session"
)

var (
	errUnauthorized = goerror.NewUnauthorized("Unauthorized")
	errUserNotFound = goerror.NewUnauthorized("User not found")
)

func (s *Usecase) issueSession(ctx context.Context, user *entity.User) (*entity.Session, error) {
	ctx, span := s.startSpan(ctx, "issueSession")
	defer span.End()

	ttl := s.sessionTTL()
	expire := s.clock.Now().Add(ttl)

	sess := entity.Session{
		ID:        s.sid.Generate(),
		ExpiresAt: expire,
		Payload: entity.SessionPayload{
			Cookie: entity.SessionCookie{
				OriginalMaxAge: ttl.Milliseconds(),
				Expires:        expire,
				Secure:         s.secureCookie(),
				HTTPOnly:       true,
				Path:           "/",
				SameSite:       "lax",
			},
			User: user.Snapshot(),
		},
	}

	if err := s.repoDB.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	return &sess, nil
}

type authenticated struct {
	Session *entity.Session
	User    *entity.User
	// Extended is set when a rolling session got a new expiry.
	Extended bool
}

// authenticate maps the session id carried by ctx to the live user. The
// snapshot in the session is never trusted; the user is re-read by id.
func (s *Usecase) authenticate(ctx context.Context) (*authenticated, error) {
	ctx, span := s.startSpan(ctx, "authenticate")
	defer span.End()

	sid := session.GetID(ctx)
	if sid == "" {
		return nil, errUnauthorized
	}

	now := s.clock.Now()
	sess, err := s.repoDB.GetSession(ctx, sid, now)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errUnauthorized
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get session", "error", err)
		return nil, err
	}

	if sess.Payload.User.ID == "" {
		return nil, errUnauthorized
	}

	user, err := s.repoDB.GetUserByID(ctx, sess.Payload.User.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "session refers to a deleted user", "user_id", sess.Payload.User.ID)
		return nil, errUserNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", sess.Payload.User.ID, "error", err)
		return nil, err
	}

	auth := &authenticated{Session: sess, User: user}
	if s.cfg.GetBool("modules.identity.session.rolling") {
		expire := now.Add(s.sessionTTL())
		if err := s.repoDB.TouchSession(ctx, sid, expire); err != nil {
			slog.WarnContext(ctx, "failed to extend session", "user_id", user.ID, "error", err)
		} else {
			sess.ExpiresAt = expire
			auth.Extended = true
		}
	}

	return auth, nil
}

type LogoutInput struct {
	SessionID string
}

// Logout destroys the session. Missing or unknown sessions succeed.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if in.SessionID == "" {
		return nil
	}

	if err := s.repoDB.DeleteSession(ctx, in.SessionID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete session", "error", err)
		return goerror.NewServer(err, "Logout failed")
	}

	return nil
}
