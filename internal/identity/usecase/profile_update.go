package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

type ProfileUpdateInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=100,person_name"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100,person_name"`
}

// ProfileUpdate changes the caller's name fields. Nil fields are left alone.
func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	auth, err := s.authenticate(ctx)
	if err != nil {
		return nil, authError(err, "Failed to update user")
	}

	in.FirstName = trimPtr(in.FirstName)
	in.LastName = trimPtr(in.LastName)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.repoDB.UpdateUserProfile(ctx, entity.UpdateProfile{
		ID:        auth.User.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo update user profile", "user_id", auth.User.ID, "error", err)
		return nil, goerror.NewServer(err, "Failed to update user")
	}

	return auth.output(user), nil
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	return lo.ToPtr(strings.TrimSpace(*v))
}
