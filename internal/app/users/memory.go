package users

import (
	"context"
	"sort"
	"sync"

	"github.com/nats-io/nuid"
)

// MemoryRepository keeps users in process memory. It backs the "memory"
// store driver and the tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
	NewID func() string
}

func NewMemoryRepository(seed ...User) *MemoryRepository {
	r := &MemoryRepository{users: map[string]User{}, NewID: nuid.Next}
	for _, u := range seed {
		r.users[u.ID] = u
	}
	return r
}

func (r *MemoryRepository) EnsureSchema(context.Context) error { return nil }

func (r *MemoryRepository) List(context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *MemoryRepository) FindByIDs(_ context.Context, ids []string) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *MemoryRepository) Insert(_ context.Context, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return User{}, ErrDuplicateUsername
		}
	}
	if user.ID == "" {
		user.ID = r.NewID()
	}
	r.users[user.ID] = user
	return user, nil
}

// Remove deletes a user without touching todos that reference it.
func (r *MemoryRepository) Remove(id string) {
	r.mu.Lock()
	delete(r.users, id)
	r.mu.Unlock()
}
