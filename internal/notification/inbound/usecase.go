package inbound

import (
	"context"

	"github.com/shandysiswandi/passwordless/internal/notification/usecase"
)

type uc interface {
	ConsumeOTPRequested(ctx context.Context, in usecase.ConsumeOTPRequestedInput) error
}
