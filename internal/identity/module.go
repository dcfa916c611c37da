package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/passwordless/internal/identity/inbound"
	"github.com/shandysiswandi/passwordless/internal/identity/outbound/db"
	"github.com/shandysiswandi/passwordless/internal/identity/outbound/email"
	"github.com/shandysiswandi/passwordless/internal/identity/outbound/ledger"
	"github.com/shandysiswandi/passwordless/internal/identity/outbound/mq"
	"github.com/shandysiswandi/passwordless/internal/identity/usecase"
	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/goroutine"
	"github.com/shandysiswandi/passwordless/internal/pkg/hash"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/mail"
	"github.com/shandysiswandi/passwordless/internal/pkg/messaging"
	"github.com/shandysiswandi/passwordless/internal/pkg/otp"
	"github.com/shandysiswandi/passwordless/internal/pkg/router"
	"github.com/shandysiswandi/passwordless/internal/pkg/session"
	"github.com/shandysiswandi/passwordless/internal/pkg/storage"
	"github.com/shandysiswandi/passwordless/internal/pkg/uid"
	"github.com/shandysiswandi/passwordless/internal/pkg/validator"
)

const (
	notifierMail      = "mail"
	notifierMessaging = "messaging"
)

var errNotifierDependency = errors.New("identity: notifier driver dependency is missing")

type Dependency struct {
	// Ctx scopes background maintenance. Nil skips it.
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.Cmdable              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Session    *session.Codec             `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	SID        uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	// Mail is used by the mail notifier.
	Mail mail.Mail
	// Messaging is used by the messaging notifier.
	Messaging messaging.Publisher
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbIdentity := db.NewDB(dep.DBConn, dep.Instrument)
	if dep.Ctx != nil && dep.Config.GetBool("database.auto_migrate") {
		if err := dbIdentity.Migrate(dep.Ctx); err != nil {
			return fmt.Errorf("identity: migrate: %w", err)
		}
	}

	led, err := ledger.New(dep.Config.GetString("modules.identity.otp.ledger.driver"), ledger.Options{
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Redis:      dep.CacheConn,
		Retention:  dep.Config.GetSecond("modules.identity.otp.ledger.redis_retention_seconds"),
		LockTTL:    dep.Config.GetMillisecond("modules.identity.otp.ledger.lock_ttl_ms"),
		LockWait:   dep.Config.GetMillisecond("modules.identity.otp.ledger.lock_wait_ms"),
	})
	if err != nil {
		return err
	}

	notifier, err := newNotifier(dep)
	if err != nil {
		return err
	}

	codeKey, err := hash.DeriveKey(dep.Config.GetString("app.secret"), "otp")
	if err != nil {
		return err
	}

	generator, err := otp.NewNumeric(dep.Config.GetInt("modules.identity.otp.digits"))
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     dbIdentity,
		Ledger:     led,
		Notifier:   notifier,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Storage:    dep.Storage,
		CodeHash:   hash.NewHMACSHA256(codeKey),
		OTP:        generator,
		UUID:       dep.UUID,
		SID:        dep.SID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Session)

	if dep.Ctx != nil {
		startMaintenance(dep, led, uc)
	}

	return nil
}

func newNotifier(dep Dependency) (usecase.Notifier, error) {
	driver := strings.ToLower(strings.TrimSpace(dep.Config.GetString("modules.identity.notifier.driver")))
	switch driver {
	case "", notifierMail:
		if dep.Mail == nil {
			return nil, fmt.Errorf("%w: %s", errNotifierDependency, notifierMail)
		}
		return email.NewNotifier(dep.Mail, dep.Config.GetString("mail.from"), dep.Config.GetString("app.name"), dep.Instrument), nil
	case notifierMessaging:
		if dep.Messaging == nil {
			return nil, fmt.Errorf("%w: %s", errNotifierDependency, notifierMessaging)
		}
		return mq.NewNotifier(dep.Messaging, dep.UID, dep.Instrument), nil
	default:
		return nil, fmt.Errorf("identity: unknown notifier driver %q", driver)
	}
}

func startMaintenance(dep Dependency, led ledger.Ledger, uc *usecase.Usecase) {
	if mem, ok := led.(*ledger.Memory); ok {
		dep.Goroutine.Every(dep.Ctx, "identity.otp.sweep",
			dep.Config.GetSecond("modules.identity.otp.sweep_interval_seconds"),
			func(ctx context.Context) error {
				n, err := mem.Sweep(ctx)
				if n > 0 {
					slog.DebugContext(ctx, "expired otp entries swept", "count", n)
				}
				return err
			})
	}

	dep.Goroutine.Every(dep.Ctx, "identity.session.prune",
		dep.Config.GetSecond("modules.identity.session.prune_interval_seconds"),
		uc.PruneSessions)
}
