package store

import (
	"context"
	"testing"
	"time"

	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
	"github.com/todo-1m/todo-api/internal/platform/config"
)

func TestOpenMemory(t *testing.T) {
	s, err := Open(context.Background(), config.Config{Store: config.StoreConfig{Driver: config.DriverMemory}})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close(context.Background())

	if err := s.WaitForSchema(context.Background(), time.Second, nil); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, ok := s.Todos.(*todos.MemoryRepository); !ok {
		t.Fatalf("expected memory todo repository, got %T", s.Todos)
	}
	if _, ok := s.Users.(*users.MemoryRepository); !ok {
		t.Fatalf("expected memory user repository, got %T", s.Users)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), config.Config{Store: config.StoreConfig{Driver: "sqlite"}}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
