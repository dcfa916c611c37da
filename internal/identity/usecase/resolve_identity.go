package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

// resolveIdentity returns the user owning email, creating it on first login.
// Concurrent first logins converge on the row that wins the insert.
func (s *Usecase) resolveIdentity(ctx context.Context, email string) (*entity.User, error) {
	ctx, span := s.startSpan(ctx, "resolveIdentity")
	defer span.End()

	user, err := s.repoDB.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	inserted, err := s.repoDB.CreateUser(ctx, entity.User{
		ID:        s.uuid.Generate(),
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		slog.InfoContext(ctx, "user created on first login", "email", email)
	}

	return s.repoDB.GetUserByEmail(ctx, email)
}
