package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/passwordless/internal/pkg/idempotency"
	"github.com/shandysiswandi/passwordless/internal/shared/otpmail"
)

type ConsumeOTPRequestedInput struct {
	EventID   int64  `validate:"required,gt=0"`
	Email     string `validate:"required,has_at"`
	Code      string `validate:"required,numeric"`
	ExpiresAt time.Time
}

// ConsumeOTPRequested emails a login code at most once per event. Codes that
// already expired are dropped.
func (s *Usecase) ConsumeOTPRequested(ctx context.Context, in ConsumeOTPRequestedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPRequested")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "event_id", in.EventID, "error", err)
		return nil
	}

	validFor := in.ExpiresAt.Sub(s.clock.Now())
	if validFor <= 0 {
		slog.WarnContext(ctx, "dropping expired otp notification", "event_id", in.EventID, "expires_at", in.ExpiresAt)
		return nil
	}

	key := "otp_requested:" + strconv.FormatInt(in.EventID, 10)
	err := s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		msg, err := otpmail.Render(s.cfg.GetString("mail.from"), otpmail.Data{
			AppName:   s.cfg.GetString("app.name"),
			Email:     in.Email,
			Code:      in.Code,
			ExpiresAt: in.ExpiresAt,
			ValidFor:  validFor,
		})
		if err != nil {
			return err
		}
		return s.repoMail.Send(ctx, msg)
	}, idempotency.WithStateTTL(s.cfg.GetHour("modules.notification.idempotency_ttl_hours")))

	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.InfoContext(ctx, "skipping duplicate otp notification", "event_id", in.EventID, "reason", err)
		return nil
	case err != nil:
		slog.ErrorContext(ctx, "failed to send otp email", "event_id", in.EventID, "error", err)
		return err
	}

	slog.InfoContext(ctx, "otp email sent", "event_id", in.EventID)
	return nil
}
