package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/todo-1m/todo-api/internal/app/seed"
	"github.com/todo-1m/todo-api/internal/app/store"
	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
	"github.com/todo-1m/todo-api/internal/platform/config"
	"github.com/todo-1m/todo-api/internal/platform/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format).With("service", "seed")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Store.Driver == config.DriverMemory {
		logger.Warn("memory store selected; seeded data is discarded on exit")
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	if err := st.WaitForSchema(ctx, 30*time.Second, func(err error) {
		logger.Info("waiting for store schema readiness", "driver", st.Driver, "error", err)
	}); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	todoSvc := todos.NewService(st.Todos, users.NewService(st.Users), nil)
	todoSvc.Logger = logger
	seeder := &seed.Seeder{
		Users:       st.Users,
		Todos:       todoSvc,
		Logger:      logger,
		Concurrency: cfg.Seed.Concurrency,
	}
	if _, err := seeder.Run(ctx, cfg.Seed.Users, cfg.Seed.TodosPerUser); err != nil {
		return err
	}

	list, err := st.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, u := range list {
		logger.Info("user", "id", u.ID, "username", u.Username, "name", u.Name)
	}
	return nil
}
