package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/passwordless/internal/identity"
	"github.com/shandysiswandi/passwordless/internal/notification"
	"github.com/shandysiswandi/passwordless/internal/pkg/messaging"
)

func (a *App) initModules() {
	var publisher messaging.Publisher
	if a.messaging != nil {
		publisher = a.messaging
	}

	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Ctx:        a.ctx,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Goroutine:  a.goroutine,
			Router:     a.router,
			Session:    a.session,
			Storage:    a.storage,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			SID:        a.sid,
			Clock:      a.clock,
			Validator:  a.validator,
			Mail:       a.mail,
			Messaging:  publisher,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if !a.config.GetBool("modules.notification.enabled") {
		return
	}
	if a.messaging == nil {
		slog.Warn("module notification skipped, messaging driver not configured")
		return
	}

	if err := notification.New(notification.Dependency{
		Ctx:         a.ctx,
		Messaging:   a.messaging,
		Idempotency: a.idemp,
		Mail:        a.mail,
		Config:      a.config,
		Instrument:  a.ins,
		UUID:        a.uuid,
		Clock:       a.clock,
		Goroutine:   a.goroutine,
		Validator:   a.validator,
	}); err != nil {
		slog.Error("failed to init module notification", "error", err)
		os.Exit(1)
	}
}
