package seed

import (
	"context"
	"math/rand"
	"testing"

	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
)

func newSeeder() (*Seeder, *users.MemoryRepository, *todos.MemoryRepository) {
	userRepo := users.NewMemoryRepository()
	todoRepo := todos.NewMemoryRepository()
	svc := todos.NewService(todoRepo, users.NewService(userRepo), nil)
	return &Seeder{
		Users:       userRepo,
		Todos:       svc,
		Concurrency: 4,
		Rand:        rand.New(rand.NewSource(7)),
	}, userRepo, todoRepo
}

func TestRunCreatesUsersAndTodos(t *testing.T) {
	s, userRepo, todoRepo := newSeeder()

	result, err := s.Run(context.Background(), 3, 4)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if result.UsersCreated != 3 || result.TodosCreated != 12 {
		t.Fatalf("unexpected result: %+v", result)
	}

	list, _ := userRepo.List(context.Background())
	if len(list) != 3 || list[0].Username != "user001" || list[2].Username != "user003" {
		t.Fatalf("unexpected users: %+v", list)
	}
	for _, u := range list {
		n, err := todoRepo.Count(context.Background(), todos.Filter{OwnerID: u.ID})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 4 {
			t.Fatalf("expected 4 todos for %s, got %d", u.Username, n)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	s, userRepo, _ := newSeeder()
	if _, err := s.Run(context.Background(), 2, 1); err != nil {
		t.Fatalf("first seed: %v", err)
	}

	result, err := s.Run(context.Background(), 3, 1)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if result.UsersExisted != 2 || result.UsersCreated != 1 || result.TodosCreated != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	list, _ := userRepo.List(context.Background())
	if len(list) != 3 {
		t.Fatalf("expected 3 users, got %d", len(list))
	}
}

func TestRunRejectsZeroUsers(t *testing.T) {
	s, _, _ := newSeeder()
	if _, err := s.Run(context.Background(), 0, 1); err == nil {
		t.Fatalf("expected error")
	}
}
