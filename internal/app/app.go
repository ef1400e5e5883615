// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/hookrelay/internal/auth"
	"github.com/bissquit/hookrelay/internal/config"
	"github.com/bissquit/hookrelay/internal/domain"
	"github.com/bissquit/hookrelay/internal/mutations"
	mutationsredis "github.com/bissquit/hookrelay/internal/mutations/redis"
	"github.com/bissquit/hookrelay/internal/pkg/ctxlog"
	"github.com/bissquit/hookrelay/internal/pkg/httputil"
	"github.com/bissquit/hookrelay/internal/pkg/metrics"
	"github.com/bissquit/hookrelay/internal/pkg/postgres"
	"github.com/bissquit/hookrelay/internal/sections"
	sectionspostgres "github.com/bissquit/hookrelay/internal/sections/postgres"
	"github.com/bissquit/hookrelay/internal/version"
	"github.com/bissquit/hookrelay/internal/webhooks"
	"github.com/bissquit/hookrelay/internal/webhooks/httpdelivery"
	webhookspostgres "github.com/bissquit/hookrelay/internal/webhooks/postgres"
	"github.com/bissquit/hookrelay/migrations"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server

	authenticator *auth.Authenticator
	queue         *webhooks.Queue
	subscriber    *mutationsredis.Subscriber
	failureLog    io.Closer
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(cfg.Database.URL, migrations.FS); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		logger.Info("database migrations applied")
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := metrics.RegisterDBPool(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("register db metrics: %w", err)
	}

	app := &App{
		config: cfg,
		logger: logger,
		db:     db,
		authenticator: auth.NewAuthenticator(auth.Config{
			SecretKey:     cfg.JWT.SecretKey,
			TokenDuration: cfg.JWT.TokenDuration,
		}),
	}

	router, err := app.setupRouter()
	if err != nil {
		if app.subscriber != nil {
			app.subscriber.Stop()
		}
		if app.queue != nil {
			_ = app.queue.Stop(context.Background())
		}
		app.closeResources()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
// Mutation sources stop first, then in-flight dispatch cycles are drained.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	var errs []error
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	if a.subscriber != nil {
		a.subscriber.Stop()
	}

	wg.Wait()

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	a.closeResources()

	return errors.Join(errs...)
}

func (a *App) closeResources() {
	a.db.Close()
	if a.failureLog != nil {
		_ = a.failureLog.Close()
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Authenticator returns the token authenticator.
// Used in tests and by the token command to issue tokens.
func (a *App) Authenticator() *auth.Authenticator {
	return a.authenticator
}

// Queue returns the dispatch queue.
func (a *App) Queue() *webhooks.Queue {
	return a.queue
}

func (a *App) setupRouter() (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	sectionsRepo := sectionspostgres.NewRepository(a.db)
	sectionsService := sections.NewService(sectionsRepo)
	sectionsHandler := sections.NewHandler(sectionsService)

	webhooksRepo := webhookspostgres.NewRepository(a.db)
	webhooksService := webhooks.NewService(webhooksRepo, sectionsService, webhooks.AuditLogListener{})
	webhooksHandler := webhooks.NewHandler(webhooksService)

	failureSink, err := a.openFailureLog()
	if err != nil {
		return nil, err
	}

	sender := httpdelivery.NewClient(httpdelivery.Config{
		UserAgent: a.config.Dispatch.UserAgent,
		Timeout:   a.config.Dispatch.Timeout,
		RateLimit: a.config.Dispatch.RateLimit,
		RateBurst: a.config.Dispatch.RateBurst,
	})
	dispatcher := webhooks.NewDispatcher(webhooksService, sender, webhooks.NewLogRecorder(failureSink),
		webhooks.DispatcherConfig{
			Timeout:     a.config.Dispatch.Timeout,
			Concurrency: a.config.Dispatch.Concurrency,
		})

	a.queue, err = webhooks.NewQueue(a.config.Dispatch.QueueSize, dispatcher)
	if err != nil {
		return nil, err
	}

	if a.config.Redis.Enabled {
		a.subscriber, err = mutationsredis.NewSubscriber(mutationsredis.Config{
			URL:     a.config.Redis.URL,
			Channel: a.config.Redis.Channel,
		}, a.queue)
		if err != nil {
			return nil, err
		}
		if err := a.subscriber.Start(context.Background()); err != nil {
			return nil, fmt.Errorf("start redis subscriber: %w", err)
		}
	}

	slog.Info("dispatch configured",
		"timeout", a.config.Dispatch.Timeout,
		"concurrency", a.config.Dispatch.Concurrency,
		"queue_size", a.config.Dispatch.QueueSize,
		"redis_enabled", a.config.Redis.Enabled,
	)

	mutationsHandler := mutations.NewHandler(a.queue, sectionsService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.AuthMiddleware(a.authenticator))

		r.Group(func(r chi.Router) {
			r.Use(httputil.RequireRole(domain.RolePublisher))
			mutationsHandler.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(httputil.RequireRole(domain.RoleAdmin))
			sectionsHandler.RegisterRoutes(r)
			webhooksHandler.RegisterRoutes(r)
		})
	})

	return r, nil
}

// openFailureLog opens the append-only delivery failure log.
// Without a configured path failures are only written to the process log.
func (a *App) openFailureLog() (io.Writer, error) {
	path := a.config.Dispatch.FailureLog
	if path == "" {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open failure log: %w", err)
	}
	a.failureLog = f
	return f, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	if a.subscriber != nil {
		if err := a.subscriber.Ping(ctx); err != nil {
			ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
			httputil.Text(w, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
