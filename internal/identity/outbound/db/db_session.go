package db

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
)

func (s *DB) CreateSession(ctx context.Context, sess entity.Session) (err error) {
	ctx, span := s.startSpan(ctx, "CreateSession")
	defer func() { s.endSpan(span, err) }()

	payload, err := json.Marshal(sess.Payload)
	if err != nil {
		return err
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO sessions (sid, sess, expire) VALUES ($1, $2, $3)
		ON CONFLICT (sid) DO UPDATE SET sess = EXCLUDED.sess, expire = EXCLUDED.expire`,
		sess.ID, payload, sess.ExpiresAt,
	)
	return s.mapError(err)
}

// GetSession returns the session if it has not expired at now.
func (s *DB) GetSession(ctx context.Context, sid string, now time.Time) (_ *entity.Session, err error) {
	ctx, span := s.startSpan(ctx, "GetSession")
	defer func() { s.endSpan(span, err) }()

	var (
		out     entity.Session
		payload []byte
	)
	err = s.conn.QueryRow(ctx,
		`SELECT sid, sess, expire FROM sessions WHERE sid = $1 AND expire > $2`, sid, now,
	).Scan(&out.ID, &payload, &out.ExpiresAt)
	if err != nil {
		return nil, s.mapError(err)
	}

	if err := json.Unmarshal(payload, &out.Payload); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DB) TouchSession(ctx context.Context, sid string, expire time.Time) (err error) {
	ctx, span := s.startSpan(ctx, "TouchSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `
		UPDATE sessions
		SET expire = $2,
		    sess = jsonb_set(sess, '{cookie,expires}', to_jsonb($2::timestamptz))
		WHERE sid = $1`,
		sid, expire,
	)
	return s.mapError(err)
}

// DeleteSession removes the session; missing rows are not an error.
func (s *DB) DeleteSession(ctx context.Context, sid string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteSession")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM sessions WHERE sid = $1`, sid)
	return s.mapError(err)
}

func (s *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredSessions")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM sessions WHERE expire <= $1`, now)
	if err != nil {
		return 0, s.mapError(err)
	}
	return tag.RowsAffected(), nil
}
