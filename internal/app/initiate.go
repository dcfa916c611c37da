package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/samber/lo"
	"github.com/shandysiswandi/passwordless/internal/pkg/clock"
	"github.com/shandysiswandi/passwordless/internal/pkg/config"
	"github.com/shandysiswandi/passwordless/internal/pkg/goroutine"
	"github.com/shandysiswandi/passwordless/internal/pkg/hash"
	"github.com/shandysiswandi/passwordless/internal/pkg/idempotency"
	"github.com/shandysiswandi/passwordless/internal/pkg/instrument"
	"github.com/shandysiswandi/passwordless/internal/pkg/mail"
	"github.com/shandysiswandi/passwordless/internal/pkg/messaging"
	"github.com/shandysiswandi/passwordless/internal/pkg/router"
	"github.com/shandysiswandi/passwordless/internal/pkg/session"
	"github.com/shandysiswandi/passwordless/internal/pkg/storage"
	"github.com/shandysiswandi/passwordless/internal/pkg/uid"
	"github.com/shandysiswandi/passwordless/internal/pkg/validator"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	if strings.TrimSpace(cfg.GetString("app.secret")) == "" {
		slog.Error("failed to init config", "error", "app.secret is required")
		os.Exit(1)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:           a.config.GetBool("instrument.enabled"),
		ServiceName:       a.config.GetString("instrument.service_name"),
		ServiceVersion:    a.config.GetString("instrument.service_version"),
		Environment:       a.config.GetString("app.env"),
		OTLPEndpoint:      a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:        a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio:  a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:   a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:        a.config.GetArray("instrument.log_mask_fields"),
		PartialMaskFields: a.config.GetArray("instrument.log_partial_mask_fields"),
		LogLevel:          a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.sid = uid.NewRandom(a.config.GetInt("modules.identity.session.id_bytes"))
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initSession() {
	key, err := hash.DeriveKey(a.config.GetString("app.secret"), "session")
	if err != nil {
		slog.Error("failed to derive session signing key", "error", err)
		os.Exit(1)
	}

	a.session = session.NewCodec(session.CodecConfig{
		Name:   a.config.GetString("modules.identity.session.cookie_name"),
		Signer: hash.NewHMACSHA256(key),
		TTL:    a.config.GetDay("modules.identity.session.ttl_days"),
		Secure: a.config.GetString("app.env") == "production",
		Domain: a.config.GetString("modules.identity.session.cookie_domain"),
	})
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn, a.config.GetString("redis.idempotency_prefix"))
}

func (a *App) initMail() {
	driver := strings.ToLower(strings.TrimSpace(a.config.GetString("mail.driver")))
	if driver == "log" {
		slog.Warn("mail driver is log, emails are written to the log only")
		a.mail = mail.NewLog()
		return
	}

	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:        a.config.GetString("mail.host"),
		Port:        a.config.GetInt("mail.port"),
		Username:    a.config.GetString("mail.username"),
		Password:    a.config.GetString("mail.password"),
		From:        a.config.GetString("mail.from"),
		DialTimeout: a.config.GetSecond("mail.dial_timeout_seconds"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Bucket:        strings.TrimSpace(a.config.GetString("storage.bucket")),
			Region:        strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:      strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:     strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:     strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken:  strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle:  a.config.GetBool("storage.s3.use_path_style"),
			PublicBaseURL: strings.TrimSpace(a.config.GetString("storage.public_base_url")),
		},
		MinIO: storage.MinIOOptions{
			Bucket:        strings.TrimSpace(a.config.GetString("storage.bucket")),
			Region:        strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:      strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:     strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:     strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken:  strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:        a.config.GetBool("storage.minio.use_ssl"),
			PublicBaseURL: strings.TrimSpace(a.config.GetString("storage.public_base_url")),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err)
		os.Exit(1)
	}

	a.storage = stg
}

// initMessaging is skipped when no driver is configured; the identity module
// then has to use the mail notifier and the notification module stays off.
func (a *App) initMessaging() {
	driver := strings.TrimSpace(a.config.GetString("messaging.driver"))
	if driver == "" {
		slog.Info("messaging driver not configured, broker features disabled")
		return
	}

	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         a.config.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			Config: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.MaxInFlight = a.config.GetInt("messaging.nsq.max_in_flight")
				cfg.MaxAttempts = a.config.GetUint16("messaging.nsq.max_attempts")
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.dial_timeout_seconds")
				cfg.DefaultRequeueDelay = a.config.GetSecond("messaging.nsq.default_requeue_delay_seconds")
				return cfg
			}(),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("instrument.service_name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
		Session:    a.session,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: lo.Uniq(a.config.GetArray("app.server.cors")),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Content-Type", "X-Correlation-ID"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

// initClosers lists resources in acquisition order; Stop walks it backwards.
func (a *App) initClosers() {
	a.closers = []closer{
		{name: "Config", fn: closeWith(a.config.Close)},
		{name: "Instrument", fn: a.ins.Shutdown},
		{name: "Database", fn: closeWith(func() error { a.dbConn.Close(); return nil })},
		{name: "Redis", fn: closeWith(a.cacheConn.Close)},
		{name: "Mail", fn: closeWith(a.mail.Close)},
		{name: "Storage", fn: closeWith(a.storage.Close)},
	}

	if a.messaging != nil {
		a.closers = append(a.closers, closer{name: "Messaging", fn: closeWith(a.messaging.Close)})
	}
}
