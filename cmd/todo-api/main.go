package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/todo-1m/todo-api/internal/app/api"
	"github.com/todo-1m/todo-api/internal/app/store"
	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
	"github.com/todo-1m/todo-api/internal/platform/config"
	"github.com/todo-1m/todo-api/internal/platform/logging"
	"github.com/todo-1m/todo-api/internal/platform/metrics"
	"github.com/todo-1m/todo-api/internal/platform/natsutil"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("todo-api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format).With("service", "todo-api", "version", cfg.Version)
	slog.SetDefault(logger)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(runCtx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()
	if err := st.WaitForSchema(runCtx, 30*time.Second, func(err error) {
		logger.Info("waiting for store schema readiness", "driver", st.Driver, "error", err)
	}); err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	readiness := []api.ReadinessCheck{{Name: st.Driver, Check: st.Ping}}

	var publish todos.PublishFunc
	if cfg.NATS.URL != "" {
		client, err := natsutil.ConnectJetStreamWithRetry(cfg.NATS.URL, cfg.NATS.ConnectTimeout)
		if err != nil {
			return err
		}
		defer client.Close()
		publish = natsutil.JetStreamPublisher{JS: client.JS}.Publish
		readiness = append(readiness, api.ReadinessCheck{
			Name:  "nats",
			Check: func(context.Context) error { return client.Connected() },
		})
		logger.Info("publishing todo events", "nats_url", cfg.NATS.URL)
	}

	userSvc := users.NewService(st.Users)
	todoSvc := todos.NewService(st.Todos, userSvc, publish)
	todoSvc.Logger = logger
	todoSvc.OnPublish = reg.ObserveEvent

	router := api.NewRouter(api.Options{
		Todos:         todos.NewHandler(todoSvc, logger),
		Users:         users.NewHandler(userSvc, logger),
		Metrics:       reg,
		Logger:        logger,
		AllowedOrigin: cfg.HTTP.AllowedOrigin,
		Readiness:     readiness,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		logger.Info("todo api listening", "addr", cfg.HTTP.Addr, "store", st.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", "error", err)
		}
		return nil
	})
	return g.Wait()
}
