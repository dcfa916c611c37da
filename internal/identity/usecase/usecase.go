package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shandysiswandi/passwordless/internal/identity/entity"
	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/hash"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/otp"
	"github.com/shandysiswandi/passwordless/internal/pkg/storage"
	"github.com/shandysiswandi/passwordless/internal/pkg/uid"
	"github.com/shandysiswandi/passwordless/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOTPWindow   = 5 * time.Minute
	defaultMaxAttempts = 3
	defaultSessionTTL  = 7 * 24 * time.Hour
	defaultAvatarBytes = 2 << 20
)

// OTPNotification is what the notifier needs to deliver a code.
type OTPNotification struct {
	Email     string
	Code      string
	ExpiresAt time.Time
	ValidFor  time.Duration
}

// Notifier delivers a freshly issued code to its owner.
type Notifier interface {
	SendOTP(ctx context.Context, in OTPNotification) error
}

type otpLedger interface {
	Put(ctx context.Context, email, digest string, expiresAt time.Time) error
	Get(ctx context.Context, email string) (*entity.PendingOTP, error)
	RecordFailedAttempt(ctx context.Context, email string) error
	Remove(ctx context.Context, email string) error
	WithLock(ctx context.Context, email string, fn func(ctx context.Context) error) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	CreateUser(ctx context.Context, u entity.User) (bool, error)
	UpdateUserProfile(ctx context.Context, in entity.UpdateProfile) (*entity.User, error)
	UpdateUserAvatar(ctx context.Context, id, url string, at time.Time) (*entity.User, error)
	DeleteUser(ctx context.Context, id string) error

	CreateSession(ctx context.Context, sess entity.Session) error
	GetSession(ctx context.Context, sid string, now time.Time) (*entity.Session, error)
	TouchSession(ctx context.Context, sid string, expire time.Time) error
	DeleteSession(ctx context.Context, sid string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Usecase struct {
	repoDB    repoDB
	ledger    otpLedger
	notifier  Notifier
	validator validator.Validator
	cfg       config.Config
	storage   storage.Storage
	codeHash  hash.Hash
	otp       otp.Generator
	uuid      uid.StringID
	sid       uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB    repoDB
	Ledger    otpLedger
	Notifier  Notifier
	Validator validator.Validator
	Config    config.Config
	Storage   storage.Storage
	// CodeHash digests codes before they reach the ledger.
	CodeHash hash.Hash
	OTP      otp.Generator
	// UUID generates user ids and avatar object names.
	UUID uid.StringID
	// SID generates session ids.
	SID        uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		ledger:    dep.Ledger,
		notifier:  dep.Notifier,
		validator: dep.Validator,
		cfg:       dep.Config,
		storage:   dep.Storage,
		codeHash:  dep.CodeHash,
		otp:       dep.OTP,
		uuid:      dep.UUID,
		sid:       dep.SID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

// Settings are read on every call so config reloads apply without a restart.

func (s *Usecase) otpWindow() time.Duration {
	if d := s.cfg.GetSecond("modules.identity.otp.window_seconds"); d > 0 {
		return d
	}
	return defaultOTPWindow
}

func (s *Usecase) maxAttempts() int {
	if n := s.cfg.GetInt("modules.identity.otp.max_attempts"); n > 0 {
		return n
	}
	return defaultMaxAttempts
}

func (s *Usecase) sessionTTL() time.Duration {
	if d := s.cfg.GetDay("modules.identity.session.ttl_days"); d > 0 {
		return d
	}
	return defaultSessionTTL
}

func (s *Usecase) avatarMaxBytes() int64 {
	if n := s.cfg.GetInt64("modules.identity.avatar.max_bytes"); n > 0 {
		return n
	}
	return defaultAvatarBytes
}

func (s *Usecase) secureCookie() bool {
	return strings.EqualFold(s.cfg.GetString("app.env"), "production")
}
