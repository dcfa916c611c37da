package db

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container test skipped in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("passwordless"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	d := NewDB(pool, instrument.NewNoop())
	require.NoError(t, d.Migrate(ctx))
	require.NoError(t, d.Migrate(ctx))
	return d
}

func TestDB_Users(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	_, err := d.GetUserByEmail(ctx, "a@x")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	inserted, err := d.CreateUser(ctx, entity.User{ID: "u1", Email: "a@x", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.True(t, inserted)

	t.Run("conflicting email keeps first row", func(t *testing.T) {
		inserted, err := d.CreateUser(ctx, entity.User{ID: "u2", Email: "a@x", CreatedAt: now, UpdatedAt: now})
		require.NoError(t, err)
		assert.False(t, inserted)

		u, err := d.GetUserByEmail(ctx, "a@x")
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
		assert.Nil(t, u.FirstName)
	})

	t.Run("concurrent creates converge", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 8 {
			wg.Go(func() {
				_, err := d.CreateUser(ctx, entity.User{
					ID: "c" + strconv.Itoa(i), Email: "race@x", CreatedAt: now, UpdatedAt: now,
				})
				assert.NoError(t, err)
			})
		}
		wg.Wait()

		var n int
		require.NoError(t, d.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE email = 'race@x'`).Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("update profile", func(t *testing.T) {
		later := now.Add(time.Minute)
		u, err := d.UpdateUserProfile(ctx, entity.UpdateProfile{ID: "u1", FirstName: lo.ToPtr("Ada"), UpdatedAt: later})
		require.NoError(t, err)
		assert.Equal(t, "Ada", lo.FromPtr(u.FirstName))
		assert.Nil(t, u.LastName)
		assert.True(t, u.UpdatedAt.Equal(later))

		u, err = d.UpdateUserAvatar(ctx, "u1", "https://cdn/a.png", later)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/a.png", lo.FromPtr(u.ProfileImageURL))
		assert.Equal(t, "Ada", lo.FromPtr(u.FirstName))

		_, err = d.UpdateUserProfile(ctx, entity.UpdateProfile{ID: "missing", UpdatedAt: later})
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, d.DeleteUser(ctx, "u1"))
		assert.ErrorIs(t, d.DeleteUser(ctx, "u1"), goerror.ErrNotFound)

		_, err := d.GetUserByID(ctx, "u1")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})
}

func TestDB_Sessions(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	sess := entity.Session{
		ID:        "sid-1",
		ExpiresAt: now.Add(time.Hour),
		Payload: entity.SessionPayload{
			Cookie: entity.SessionCookie{OriginalMaxAge: 3600000, Expires: now.Add(time.Hour), HTTPOnly: true, Path: "/"},
			User:   entity.SessionUser{ID: "u1", Email: "a@x"},
		},
	}
	require.NoError(t, d.CreateSession(ctx, sess))

	got, err := d.GetSession(ctx, "sid-1", now)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Payload.User.ID)
	assert.True(t, got.ExpiresAt.Equal(now.Add(time.Hour)))

	_, err = d.GetSession(ctx, "sid-1", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.NoError(t, d.TouchSession(ctx, "sid-1", now.Add(3*time.Hour)))
	got, err = d.GetSession(ctx, "sid-1", now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, got.Payload.Cookie.Expires.Equal(now.Add(3*time.Hour)))

	require.NoError(t, d.CreateSession(ctx, entity.Session{ID: "old", ExpiresAt: now.Add(-time.Minute)}))
	n, err := d.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, d.DeleteSession(ctx, "sid-1"))
	require.NoError(t, d.DeleteSession(ctx, "sid-1"))
	_, err = d.GetSession(ctx, "sid-1", now)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
