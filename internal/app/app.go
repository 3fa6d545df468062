package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/shortloop/shortloop/internal/clicks"
	"github.com/shortloop/shortloop/internal/config"
	"github.com/shortloop/shortloop/internal/database/postgres"
	"github.com/shortloop/shortloop/internal/service"
	"golang.org/x/sync/errgroup"

	api "github.com/shortloop/shortloop/internal/api/http/v1"
	pg "github.com/shortloop/shortloop/pkg/postgres"
)

// Run wires the storage handle, the click accounting pool, the URL service
// and the HTTP server together, then blocks until ctx is cancelled or a
// component fails. Shutdown is graceful: the server drains in-flight
// requests and the click workers flush their queue.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := httplog.NewLogger("shortloop", httplog.Options{
		JSON:     cfg.Env == config.EnvProd,
		LogLevel: logLevel(cfg.Env),
		Concise:  cfg.Env != config.EnvProd,
	})

	db, err := pg.Connect(
		ctx,
		cfg.Postgres.DSN(),
		pg.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		pg.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		pg.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		pg.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := pg.Migrate("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	urlRepo := postgres.NewURLRepository(db)

	clickRecorder := clicks.NewRecorder(urlRepo, logger.Logger,
		clicks.WithQueueSize(cfg.Clicks.QueueSize),
		clicks.WithWorkers(cfg.Clicks.Workers),
		clicks.WithWriteTimeout(cfg.Clicks.WriteTimeout),
		clicks.WithDrainTimeout(cfg.Clicks.DrainTimeout),
	)

	urlSvc := service.NewURLService(urlRepo, clickRecorder, cfg.ShortCode)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        api.NewRouter(logger, urlSvc, cfg.BaseURL),
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return clickRecorder.Run(ctx)
	})

	g.Go(func() error {
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
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}

func logLevel(env string) slog.Level {
	if env == config.EnvProd {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}
