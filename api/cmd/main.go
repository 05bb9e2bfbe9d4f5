package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/event"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/notify"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/report"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/user"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/application/userevent"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/cache"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/config"
	redisinfra "github.com/baechuer/real-time-ressys/services/meetup-service/internal/infrastructure/caching/redis"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/infrastructure/db/postgres"
	rabbitpub "github.com/baechuer/real-time-ressys/services/meetup-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/tracing"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/handlers"
	authmw "github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/middleware"
	"github.com/baechuer/real-time-ressys/services/meetup-service/internal/transport/http/router"
)

// sysClock implements the services' Clock using system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service
type App struct {
	Config *config.Config
	Server *http.Server
	DB     *sql.DB

	Redis     *redisinfra.Client
	Publisher *rabbitpub.Publisher
	Tracer    *tracing.TracerProvider
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config load failed")
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		zlog.Info().
			Str("db_driver", cfg.DBDriver).
			Str("db_host", u.Host).
			Str("db_db", u.Path).
			Msg("db config loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, postgres.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		ConnMaxLife:  cfg.DBConnMaxLife,
		PingTimeout:  cfg.DBPingTimeout,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("db open failed")
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			zlog.Fatal().Err(err).Msg("db migrate failed")
		}
	}

	app := NewApp(ctx, cfg, db)
	defer app.Close()

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		zlog.Fatal().Err(err).Msg("server crashed")
	case <-ctx.Done():
	}

	zlog.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("http shutdown failed")
	}
}

func NewApp(ctx context.Context, cfg *config.Config, db *sql.DB) *App {
	app := &App{Config: cfg, DB: db}

	// 1) Observability
	tp, err := tracing.InitTracing(ctx, tracing.Config{
		ServiceName:    "meetup-service",
		ServiceVersion: "v1",
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		zlog.Fatal().Err(err).Msg("tracing init failed")
	}
	app.Tracer = tp

	// 2) Infrastructure
	var store cache.Store
	if cfg.RedisURL != "" {
		rc, err := redisinfra.New(cfg.RedisURL)
		if err != nil {
			zlog.Fatal().Err(err).Msg("redis init failed")
		}
		app.Redis = rc
		store = rc.WithNamespace("meetup:")
		zlog.Info().Msg("redis cache ready")
	} else {
		zlog.Warn().Msg("REDIS_URL empty: caching disabled")
	}

	var pub notify.Publisher = notify.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitpub.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			zlog.Fatal().Err(err).Msg("rabbit publisher init failed")
		}
		app.Publisher = p
		pub = p
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events will not be published")
	}

	// 3) Application
	clock := sysClock{}
	eventSvc := event.New(postgres.NewEventRepo(db), clock, pub, store, cfg.CacheTTLDetails)
	userSvc := user.New(postgres.NewUserRepo(db), clock, pub, store)
	joinSvc := userevent.New(postgres.NewUserEventRepo(db), clock, pub, store)
	reportSvc := report.New(postgres.NewReportRepo(db), store, cfg.CacheTTLReport)

	// 4) Transport
	deps := map[string]handlers.Pinger{"postgres": db}
	if app.Redis != nil {
		deps["redis"] = handlers.PingFunc(app.Redis.Ping)
	}
	h := router.Handlers{
		Events:     handlers.NewEventsHandler(eventSvc),
		Users:      handlers.NewUsersHandler(userSvc),
		UserEvents: handlers.NewUserEventsHandler(joinSvc),
		Reports:    handlers.NewReportsHandler(reportSvc),
		Health:     handlers.NewHealthHandler(deps),
	}
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)

	// 5) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router.New(h, auth, cfg),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return app
}

func (a *App) Close() {
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Tracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.Tracer.Shutdown(ctx)
	}
}
