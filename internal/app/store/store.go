// Package store opens the configured backend and hands out its repositories.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
	"github.com/todo-1m/todo-api/internal/platform/config"
	"github.com/todo-1m/todo-api/internal/platform/dbpool"
	"github.com/todo-1m/todo-api/internal/platform/mongodb"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Store struct {
	Driver string
	Todos  todos.Repository
	Users  users.Repository

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Open connects to the backend named by cfg.Store.Driver. The caller owns
// the returned Store and must Close it.
func Open(ctx context.Context, cfg config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := dbpool.New(ctx, cfg.PG)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return &Store{
			Driver: config.DriverPostgres,
			Todos:  todos.NewPostgresRepository(pool),
			Users:  users.NewPostgresRepository(pool),
			ping:   pool.Ping,
			close: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("open mongo: %w", err)
		}
		return &Store{
			Driver: config.DriverMongo,
			Todos:  todos.NewMongoRepository(db),
			Users:  users.NewMongoRepository(db),
			ping: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
			close: client.Disconnect,
		}, nil
	case config.DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// NewMemory returns an empty in-process store.
func NewMemory() *Store {
	return &Store{
		Driver: config.DriverMemory,
		Todos:  todos.NewMemoryRepository(),
		Users:  users.NewMemoryRepository(),
		ping:   func(context.Context) error { return nil },
		close:  func(context.Context) error { return nil },
	}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if err := s.Users.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("users schema: %w", err)
	}
	if err := s.Todos.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("todos schema: %w", err)
	}
	return nil
}

// WaitForSchema retries EnsureSchema until it succeeds or timeout elapses.
// Databases started alongside the service may not accept connections yet.
func (s *Store) WaitForSchema(ctx context.Context, timeout time.Duration, onRetry func(error)) error {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		lastErr = s.EnsureSchema(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}
		if onRetry != nil {
			onRetry(lastErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return lastErr
}

func (s *Store) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()
	if err := s.ping(checkCtx); err != nil {
		return fmt.Errorf("%s ping failed: %w", s.Driver, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
