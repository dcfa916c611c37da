package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/goerror"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldCode      = "code"
	fieldExpiresAt = "expires_at"
	fieldAttempts  = "attempts"

	defaultLockTTL  = 2 * time.Second
	defaultLockWait = time.Second
)

var errLockBusy = errors.New("ledger: lock busy")

// incrIfExists bumps attempts only when the entry still exists.
var incrIfExists = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return redis.call("HINCRBY", KEYS[1], ARGV[1], 1)
end
return 0
`)

// releaseLock deletes the lock only when it still holds our token.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a ledger shared by every replica through Redis.
type Redis struct {
	client    redis.Cmdable
	ins       instrument.Instrumentation
	retention time.Duration
	lockTTL   time.Duration
	lockWait  time.Duration
}

// NewRedis returns a Redis ledger. opts.Redis must be set.
func NewRedis(opts Options) (*Redis, error) {
	if opts.Redis == nil {
		return nil, errors.New("ledger: redis client is required")
	}

	r := &Redis{
		client:    opts.Redis,
		ins:       opts.Instrument,
		retention: max(opts.Retention, 0),
		lockTTL:   opts.LockTTL,
		lockWait:  opts.LockWait,
	}
	if r.ins == nil {
		r.ins = instrument.NewNoop()
	}
	if r.lockTTL <= 0 {
		r.lockTTL = defaultLockTTL
	}
	if r.lockWait <= 0 {
		r.lockWait = defaultLockWait
	}

	return r, nil
}

func entryKey(email string) string { return "otp:{" + email + "}" }

func lockKey(email string) string { return "otp_lock:{" + email + "}" }

func (r *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.ins.Tracer("identity.outbound.ledger").Start(ctx, name)
}

func (r *Redis) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Put replaces any entry for email with a fresh one expiring at expiresAt.
func (r *Redis) Put(ctx context.Context, email, digest string, expiresAt time.Time) (err error) {
	ctx, span := r.startSpan(ctx, "Put")
	defer func() { r.endSpan(span, err) }()

	key := entryKey(email)

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key,
			fieldCode, digest,
			fieldExpiresAt, expiresAt.UnixMilli(),
			fieldAttempts, 0,
		)
		p.PExpireAt(ctx, key, expiresAt.Add(r.retention))
		return nil
	})
	return err
}

// Get returns the entry or goerror.ErrNotFound.
func (r *Redis) Get(ctx context.Context, email string) (_ *entity.PendingOTP, err error) {
	ctx, span := r.startSpan(ctx, "Get")
	defer func() { r.endSpan(span, err) }()

	fields, err := r.client.HGetAll(ctx, entryKey(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, goerror.ErrNotFound
	}

	expMs, err := strconv.ParseInt(fields[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, err
	}
	attempts, err := strconv.Atoi(fields[fieldAttempts])
	if err != nil {
		return nil, err
	}

	return &entity.PendingOTP{
		Email:      email,
		CodeDigest: fields[fieldCode],
		ExpiresAt:  time.UnixMilli(expMs),
		Attempts:   attempts,
	}, nil
}

// RecordFailedAttempt increments the attempt counter; absent entries are ignored.
func (r *Redis) RecordFailedAttempt(ctx context.Context, email string) (err error) {
	ctx, span := r.startSpan(ctx, "RecordFailedAttempt")
	defer func() { r.endSpan(span, err) }()

	return incrIfExists.Run(ctx, r.client, []string{entryKey(email)}, fieldAttempts).Err()
}

// Remove deletes the entry if present.
func (r *Redis) Remove(ctx context.Context, email string) (err error) {
	ctx, span := r.startSpan(ctx, "Remove")
	defer func() { r.endSpan(span, err) }()

	return r.client.Del(ctx, entryKey(email)).Err()
}

// WithLock runs fn while holding otp_lock:{email}. The lock expires after
// the configured TTL, so fn must finish well within it.
func (r *Redis) WithLock(ctx context.Context, email string, fn func(ctx context.Context) error) error {
	key := lockKey(email)
	token := uuid.NewString()

	b := retry.NewExponential(10 * time.Millisecond)
	b = retry.WithCappedDuration(100*time.Millisecond, b)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxDuration(r.lockWait, b)

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		ok, err := r.client.SetNX(ctx, key, token, r.lockTTL).Result()
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errLockBusy)
		}
		return nil
	})
	if errors.Is(err, errLockBusy) {
		return ErrLockTimeout
	}
	if err != nil {
		return err
	}

	defer func() {
		_ = releaseLock.Run(context.WithoutCancel(ctx), r.client, []string{key}, token).Err()
	}()

	return fn(ctx)
}
