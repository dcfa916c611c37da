package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

type RequestOTPInput struct {
	Email string `validate:"required,has_at"`
}

// RequestOTP issues a fresh code for the email, replacing any pending one, and
// hands it to the notifier. A failed delivery leaves the new code in place.
func (s *Usecase) RequestOTP(ctx context.Context, in RequestOTPInput) error {
	ctx, span := s.startSpan(ctx, "RequestOTP")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewBusiness("Valid email required", goerror.CodeBadRequest)
	}

	code, err := s.otp.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "error", err)
		return goerror.NewServer(err)
	}

	digest, err := s.codeHash.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "error", err)
		return goerror.NewServer(err)
	}

	window := s.otpWindow()
	expiresAt := s.clock.Now().Add(window)

	if err := s.ledger.WithLock(ctx, in.Email, func(ctx context.Context) error {
		return s.ledger.Put(ctx, in.Email, string(digest), expiresAt)
	}); err != nil {
		slog.ErrorContext(ctx, "failed to ledger put otp", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	if err := s.notifier.SendOTP(ctx, OTPNotification{
		Email:     in.Email,
		Code:      code,
		ExpiresAt: expiresAt,
		ValidFor:  window,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp notification", "email", in.Email, "error", err)
		return goerror.NewServer(err, "Failed to send OTP")
	}

	slog.InfoContext(ctx, "otp issued", "email", in.Email, "expires_at", expiresAt)
	return nil
}
