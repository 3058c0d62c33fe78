package todos

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nuid"
)

// MemoryRepository keeps todos in process memory. Callers never share slices
// with the stored values.
type MemoryRepository struct {
	mu    sync.RWMutex
	todos map[string]Todo
	NewID func() string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{todos: map[string]Todo{}, NewID: nuid.Next}
}

func (r *MemoryRepository) EnsureSchema(context.Context) error { return nil }

func (r *MemoryRepository) Find(_ context.Context, f Filter, w Window) ([]Todo, error) {
	matched := r.matching(f)
	if w.Offset >= len(matched) {
		return []Todo{}, nil
	}
	matched = matched[w.Offset:]
	if w.Limit > 0 && w.Limit < len(matched) {
		matched = matched[:w.Limit]
	}
	return matched, nil
}

func (r *MemoryRepository) Count(_ context.Context, f Filter) (int64, error) {
	return int64(len(r.matching(f))), nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.todos[id]
	if !ok {
		return Todo{}, ErrTodoNotFound
	}
	return t.clone(), nil
}

func (r *MemoryRepository) Insert(_ context.Context, t Todo) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t = t.clone()
	t.ID = r.NewID()
	for i := range t.Notes {
		if t.Notes[i].ID == "" {
			t.Notes[i].ID = r.NewID()
		}
	}
	r.todos[t.ID] = t
	return t.clone(), nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, p Patch) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok {
		return Todo{}, ErrTodoNotFound
	}
	t = t.clone()
	t.apply(p)
	r.todos[id] = t
	return t.clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok {
		return Todo{}, ErrTodoNotFound
	}
	delete(r.todos, id)
	return t, nil
}

func (r *MemoryRepository) AppendNote(_ context.Context, id string, n Note, at time.Time) (Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.todos[id]
	if !ok {
		return Todo{}, ErrTodoNotFound
	}
	t = t.clone()
	n.ID = r.NewID()
	t.Notes = append(t.Notes, n)
	t.UpdatedAt = at
	r.todos[id] = t
	return t.clone(), nil
}

func (r *MemoryRepository) DistinctTags(_ context.Context, ownerID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	for _, t := range r.todos {
		if t.OwnerID != ownerID {
			continue
		}
		for _, tag := range t.Tags {
			seen[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

func (r *MemoryRepository) matching(f Filter) []Todo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Todo, 0)
	for _, t := range r.todos {
		if f.Matches(t) {
			out = append(out, t.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
