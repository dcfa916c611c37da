package usecase

import (
	"context"
	"log/slog"
)

// PruneSessions deletes sessions whose expiry has passed.
func (s *Usecase) PruneSessions(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "PruneSessions")
	defer span.End()

	n, err := s.repoDB.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired sessions", "error", err)
		return err
	}
	if n > 0 {
		slog.InfoContext(ctx, "expired sessions pruned", "count", n)
	}
	return nil
}
