package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

// ProfileDelete removes the caller's identity and current session. Other
// sessions of the user fail authentication on their next use.
func (s *Usecase) ProfileDelete(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "ProfileDelete")
	defer span.End()

	auth, err := s.authenticate(ctx)
	if err != nil {
		return authError(err, "Failed to delete user")
	}

	if err := s.repoDB.DeleteUser(ctx, auth.User.ID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo delete user", "user_id", auth.User.ID, "error", err)
		return goerror.NewServer(err, "Failed to delete user")
	}

	if err := s.repoDB.DeleteSession(ctx, auth.Session.ID); err != nil {
		slog.WarnContext(ctx, "failed to repo delete session of deleted user", "user_id", auth.User.ID, "error", err)
	}

	slog.InfoContext(ctx, "user deleted", "user_id", auth.User.ID)
	return nil
}
