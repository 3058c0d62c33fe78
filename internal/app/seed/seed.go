// Package seed fills a store with users and demo todos. The API has no
// user-creation endpoint, so this is how users come to exist.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/todo-1m/todo-api/internal/app/todos"
	"github.com/todo-1m/todo-api/internal/app/users"
	"golang.org/x/sync/errgroup"
)

var demoTags = []string{"work", "home", "errands", "health", "finance", "travel"}

var demoTitles = []string{
	"Review pull requests",
	"Buy groceries",
	"Book dentist appointment",
	"Plan sprint",
	"Pay electricity bill",
	"Renew passport",
	"Call the bank",
	"Water the plants",
}

type Seeder struct {
	Users       users.Repository
	Todos       *todos.Service
	Logger      *slog.Logger
	Concurrency int
	Rand        *rand.Rand
}

type Result struct {
	UsersCreated int
	UsersExisted int
	TodosCreated int
}

// Run makes sure users user001..userN exist and gives every newly created
// user todosPerUser demo todos. Running it twice creates no duplicates.
func (s *Seeder) Run(ctx context.Context, userCount, todosPerUser int) (Result, error) {
	if userCount <= 0 {
		return Result{}, errors.New("user count must be > 0")
	}
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}

	existing, err := s.Users.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list users: %w", err)
	}
	byName := make(map[string]users.User, len(existing))
	for _, u := range existing {
		byName[u.Username] = u
	}

	var (
		mu      sync.Mutex
		all     = make([]users.User, 0, userCount)
		created []users.User
		result  Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 1; i <= userCount; i++ {
		username := fmt.Sprintf("user%03d", i)
		if u, ok := byName[username]; ok {
			mu.Lock()
			all = append(all, u)
			mu.Unlock()
			result.UsersExisted++
			continue
		}
		g.Go(func() error {
			u, err := s.Users.Insert(gctx, users.User{Username: username, Name: fmt.Sprintf("Demo User %d", i)})
			if errors.Is(err, users.ErrDuplicateUsername) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("insert %s: %w", username, err)
			}
			mu.Lock()
			all = append(all, u)
			created = append(created, u)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	result.UsersCreated = len(created)

	if todosPerUser <= 0 || len(created) == 0 {
		return result, nil
	}

	inputs := make([]todos.CreateInput, 0, len(created)*todosPerUser)
	for _, owner := range created {
		for j := 0; j < todosPerUser; j++ {
			inputs = append(inputs, s.demoTodo(owner, all))
		}
	}

	var createdTodos int
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, in := range inputs {
		g.Go(func() error {
			if _, err := s.Todos.Create(gctx, in); err != nil {
				return fmt.Errorf("create todo for %s: %w", in.UserID, err)
			}
			mu.Lock()
			createdTodos++
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()
	result.TodosCreated = createdTodos
	if s.Logger != nil {
		s.Logger.InfoContext(ctx, "seed finished",
			"users_created", result.UsersCreated,
			"users_existing", result.UsersExisted,
			"todos_created", result.TodosCreated,
		)
	}
	return result, err
}

func (s *Seeder) demoTodo(owner users.User, pool []users.User) todos.CreateInput {
	rnd := s.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
		s.Rand = rnd
	}
	priorities := []todos.Priority{todos.PriorityLow, todos.PriorityMedium, todos.PriorityHigh}
	in := todos.CreateInput{
		Title:       demoTitles[rnd.Intn(len(demoTitles))],
		UserID:      owner.ID,
		Description: "Created by the seed tool",
		Priority:    string(priorities[rnd.Intn(len(priorities))]),
		Tags:        []string{demoTags[rnd.Intn(len(demoTags))], demoTags[rnd.Intn(len(demoTags))]},
	}
	if len(pool) > 1 && rnd.Intn(2) == 0 {
		in.AssignedUsers = []string{pool[rnd.Intn(len(pool))].ID}
	}
	return in
}
