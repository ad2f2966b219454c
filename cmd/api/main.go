package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xavierca1/pipeline-dashboard/internal/auth"
	"github.com/xavierca1/pipeline-dashboard/internal/config"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/cache"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/database"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/http/handlers"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/mail"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/queue"
	"github.com/xavierca1/pipeline-dashboard/internal/infra/worker"
	"github.com/xavierca1/pipeline-dashboard/internal/logger"
	"github.com/xavierca1/pipeline-dashboard/internal/usecase"
)

const version = "1.0.0"

// store is what both cache backends provide.
type store interface {
	usecase.Cache
	auth.Revoker
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel).With("app", cfg.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	conn, err := database.NewDBConnection(ctx, database.Dialect(cfg.Dialect()), cfg.DatabaseURL, database.PoolConfig{
		MaxOpen: cfg.DBMaxOpen, MaxIdle: cfg.DBMaxIdle, MaxIdleTime: cfg.DBMaxIdleFor,
	})
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	if err := database.Migrate(ctx, conn); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	users := database.NewUserRepository(conn)
	teams := database.NewTeamRepository(conn)
	leads := database.NewLeadRepository(conn)
	history := database.NewStatusHistoryRepository(conn)
	events := database.NewEventRepository(conn)
	audit := database.NewAuditRepository(conn)
	kpiConfigs := database.NewKPIConfigRepository(conn)

	// 2. Cache: Redis when configured, in-process otherwise
	var (
		kv     store = cache.NewMemory()
		pinger handlers.Pinger
	)
	if cfg.RedisURL != "" {
		rc, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("redis unavailable", "error", err)
			os.Exit(1)
		}
		defer rc.Close()
		kv, pinger = rc, rc
	}

	// 3. Mail
	var mailer usecase.Mailer = &mail.LogSender{Log: log}
	if cfg.MailHost != "" {
		mailer = mail.NewEmailSender(cfg.AppName, cfg.MailFrom, cfg.MailHost, cfg.MailPort, cfg.MailUser, cfg.MailPassword)
	}
	notifications := usecase.NewNotificationUseCase(users, teams, leads, mailer, log)

	// 4. Queue: RabbitMQ when configured, log-only otherwise
	var (
		publisher usecase.Publisher = &queue.LogProducer{Log: log}
		broker    handlers.Broker
	)
	if cfg.RabbitMQURL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			log.Error("rabbitmq unavailable", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		publisher, broker = queue.NewProducer(rabbitMQ.Ch), rabbitMQ

		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			log.Error("failed to open consumer channel", "error", err)
			os.Exit(1)
		}
		w := queue.NewWorker(consumerCh, notifications, log)
		go func() {
			if err := w.Start(ctx, queue.QueueName); err != nil {
				log.Error("notification worker stopped", "error", err)
			}
		}()
	}

	// 5. Scheduled jobs
	retention := worker.NewRetentionWorker(audit, cfg.DataRetentionDays, log)
	if err := retention.Start(); err != nil {
		log.Error("failed to schedule retention job", "error", err)
		os.Exit(1)
	}
	defer retention.Stop()

	// 6. Use cases
	sessions := auth.NewSessionManager(cfg.SecretKey, cfg.SessionMaxAge, cfg.CSRFTokenExpiry, kv)
	authUC := usecase.NewAuthUseCase(users, audit, sessions, publisher, cfg.BcryptCost, log)
	leadUC := usecase.NewLeadUseCase(leads, history, events, audit, kv, cfg.KPICacheTTL, log)
	eventUC := usecase.NewEventUseCase(leads, history, events, audit, kv, publisher, log)
	activityUC := usecase.NewActivityUseCase(leadUC, eventUC, log)
	configUC := usecase.NewKPIConfigUseCase(kpiConfigs, audit, kv, log)
	kpiUC := usecase.NewKPIUseCase(users, teams, leads, history, events, configUC, audit, kv, cfg.KPICacheTTL, log)
	adminUC := usecase.NewAdminUseCase(users, teams, audit, publisher, kv, cfg.BcryptCost, log)

	// 7. Router
	router := &handlers.Router{
		Config: handlers.RouterConfig{
			CORSOrigins:       cfg.CORSOrigins,
			CookieName:        cfg.SessionCookieName,
			HSTS:              !cfg.Debug,
			LoginPerMinute:    cfg.LoginRatePerMinute,
			RegisterPerMinute: cfg.RegisterRatePerMinute,
			TrustProxy:        cfg.TrustProxy,
			RequestLog:        true,
		},
		Sessions: sessions,
		Authn:    authUC,
		Health:   handlers.NewHealthHandler(conn.DB, broker, pinger, version),
		Auth: handlers.NewAuthHandler(authUC, handlers.CookieConfig{
			Name: cfg.SessionCookieName, MaxAge: cfg.SessionMaxAge, Secure: !cfg.Debug,
		}, log),
		Leads:      handlers.NewLeadHandler(leadUC, log),
		Events:     handlers.NewEventHandler(eventUC, log),
		Activities: handlers.NewActivityHandler(activityUC, log),
		KPIs:       handlers.NewKPIHandler(kpiUC, log),
		KPIConfig:  handlers.NewKPIConfigHandler(configUC, log),
		Admin:      handlers.NewAdminHandler(adminUC, log),
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "version", version, "database", cfg.Dialect())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
