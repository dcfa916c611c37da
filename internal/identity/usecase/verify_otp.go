package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Email string
	Code  string
}

type VerifyOTPOutput struct {
	User    *entity.User
	Session *entity.Session
}

// VerifyOTP checks the submitted code and, when it is accepted, resolves the
// identity and issues a session. Rejections never touch the user store.
func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) (*VerifyOTPOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	if in.Email == "" || in.Code == "" {
		return nil, goerror.NewBusiness("Email and OTP required", goerror.CodeBadRequest)
	}

	rejection, err := s.verify(ctx, in.Email, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify otp", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}
	if rejection != entity.RejectionNone {
		slog.WarnContext(ctx, "otp rejected", "email", in.Email, "reason", rejection.String())
		return nil, goerror.NewBusiness(rejection.Message(), goerror.CodeBadRequest)
	}

	user, err := s.resolveIdentity(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve identity", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	sess, err := s.issueSession(ctx, user)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue session", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &VerifyOTPOutput{User: user, Session: sess}, nil
}

// verify runs the ledger decision inside the per-email critical section. The
// attempt ceiling is checked before the code comparison, so with the default
// settings the fourth submission is the one rejected for too many attempts.
// With modules.identity.otp.strict_attempts the miss that reaches the ceiling
// is itself rejected for too many attempts.
func (s *Usecase) verify(ctx context.Context, email, code string) (entity.Rejection, error) {
	ctx, span := s.startSpan(ctx, "verify")
	defer span.End()

	rejection := entity.RejectionNone
	err := s.ledger.WithLock(ctx, email, func(ctx context.Context) error {
		entry, err := s.ledger.Get(ctx, email)
		if errors.Is(err, goerror.ErrNotFound) {
			rejection = entity.RejectionNotFound
			return nil
		}
		if err != nil {
			return err
		}

		if entry.Expired(s.clock.Now()) {
			rejection = entity.RejectionExpired
			return s.ledger.Remove(ctx, email)
		}

		ceiling := s.maxAttempts()
		if entry.Attempts >= ceiling {
			rejection = entity.RejectionTooManyAttempts
			return s.ledger.Remove(ctx, email)
		}

		if !s.codeHash.Verify(entry.CodeDigest, code) {
			if s.cfg.GetBool("modules.identity.otp.strict_attempts") && entry.Attempts+1 >= ceiling {
				rejection = entity.RejectionTooManyAttempts
				return s.ledger.Remove(ctx, email)
			}
			rejection = entity.RejectionInvalidCode
			return s.ledger.RecordFailedAttempt(ctx, email)
		}

		return s.ledger.Remove(ctx, email)
	})
	if err != nil {
		return entity.RejectionNone, err
	}

	return rejection, nil
}
