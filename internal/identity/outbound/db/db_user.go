package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
)

const userColumns = `id, email, first_name, last_name, profile_image_url, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.ProfileImageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *DB) GetUserByID(ctx context.Context, id string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

// CreateUser inserts u unless a row with the same email exists. It reports
// whether a row was inserted.
func (s *DB) CreateUser(ctx context.Context, u entity.User) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO NOTHING`,
		u.ID, u.Email, u.FirstName, u.LastName, u.ProfileImageURL, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return false, s.mapError(err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateUserProfile sets the non-nil name fields and returns the updated row.
func (s *DB) UpdateUserProfile(ctx context.Context, in entity.UpdateProfile) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserProfile")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `
		UPDATE users
		SET first_name = COALESCE($2, first_name),
		    last_name  = COALESCE($3, last_name),
		    updated_at = $4
		WHERE id = $1
		RETURNING `+userColumns,
		in.ID, in.FirstName, in.LastName, in.UpdatedAt,
	))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *DB) UpdateUserAvatar(ctx context.Context, id, url string, at time.Time) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserAvatar")
	defer func() { s.endSpan(span, err) }()

	u, err := scanUser(s.conn.QueryRow(ctx, `
		UPDATE users SET profile_image_url = $2, updated_at = $3
		WHERE id = $1
		RETURNING `+userColumns,
		id, url, at,
	))
	if err != nil {
		return nil, s.mapError(err)
	}
	return u, nil
}

func (s *DB) DeleteUser(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteUser")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}
	return nil
}
