// Package app assembles the service from its configuration and runs the HTTP
// server until the context is canceled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/shorten-api/internal/adapter/repository/memory"
	"github.com/vadimbarashkov/shorten-api/internal/config"
	"github.com/vadimbarashkov/shorten-api/internal/usecase"
	"github.com/vadimbarashkov/shorten-api/pkg/metrics"
	"golang.org/x/sync/errgroup"

	delivery "github.com/vadimbarashkov/shorten-api/internal/adapter/delivery/http"
	repository "github.com/vadimbarashkov/shorten-api/internal/adapter/repository/postgres"
	pg "github.com/vadimbarashkov/shorten-api/pkg/postgres"
)

const (
	serviceName      = "shorten-api"
	metricsNamespace = "shorten_api"
	shutdownTimeout  = 10 * time.Second
)

// NewLogger builds the service logger from the log section of cfg.
func NewLogger(cfg *config.Config) *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		JSON:             cfg.Log.JSON,
		LogLevel:         cfg.Log.SlogLevel(),
		Concise:          !cfg.Log.JSON,
		RequestHeaders:   cfg.Env != config.EnvProd,
		MessageFieldName: "message",
		TimeFieldFormat:  time.RFC3339,
		Tags: map[string]string{
			"env": cfg.Env,
		},
		QuietDownRoutes: []string{
			"/ping",
			"/metrics",
		},
		QuietDownPeriod: 10 * time.Second,
		Writer:          os.Stdout,
	})
}

// newURLUseCase opens the configured store and returns the use case on top of
// it together with a function releasing the store.
func newURLUseCase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*usecase.URLUseCase, func() error, error) {
	const op = "app.newURLUseCase"

	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage, data is lost on exit")
		return usecase.NewURLUseCase(memory.NewURLRepository()), func() error { return nil }, nil
	}

	db, err := pg.New(
		ctx,
		cfg.Postgres.DSN(),
		pg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	applied, err := pg.RunMigrations(cfg.Postgres.MigrationsPath, cfg.Postgres.DSN())
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}
	logger.Info("database is ready", slog.Bool("migrations_applied", applied))

	return usecase.NewURLUseCase(repository.NewURLRepository(db)), db.Close, nil
}

// baseContext keeps the values of ctx for every request but not its
// cancellation, so in-flight requests can finish while the server drains.
func baseContext(ctx context.Context) func(net.Listener) context.Context {
	reqCtx := context.WithoutCancel(ctx)
	return func(_ net.Listener) context.Context {
		return reqCtx
	}
}

// Run serves the API until ctx is canceled, then shuts the server down and
// releases the store.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := NewLogger(cfg)

	urlUseCase, closeStore, err := newURLUseCase(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("failed to close storage", slog.Any("err", err))
		}
	}()

	router := delivery.NewRouter(logger, urlUseCase, metrics.New(metricsNamespace))

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(logger.Handler(), slog.LevelError),
		BaseContext:    baseContext(ctx),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server",
			slog.String("addr", server.Addr),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage),
		)

		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
