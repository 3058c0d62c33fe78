package users

import (
	"context"
	"fmt"
	"strings"
)

// MissingError lists the requested ids that did not resolve to a user.
type MissingError struct {
	IDs []string
}

func (e *MissingError) Error() string {
	quoted := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return "unknown user ids: " + strings.Join(quoted, ", ")
}

type Service struct {
	Repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.Repo.List(ctx)
}

// FindByIDs resolves ids with a single store lookup. Blank and repeated ids
// are ignored.
func (s *Service) FindByIDs(ctx context.Context, ids []string) ([]User, error) {
	unique, _ := normalizeIDs(ids)
	if len(unique) == 0 {
		return []User{}, nil
	}
	return s.Repo.FindByIDs(ctx, unique)
}

// EnsureExist succeeds when every id resolves to a stored user. The
// comparison is made on sets: repeated ids are looked up once and a blank
// id never resolves. An empty list is valid without touching the store.
func (s *Service) EnsureExist(ctx context.Context, ids []string) error {
	unique, hasBlank := normalizeIDs(ids)
	if len(unique) == 0 && !hasBlank {
		return nil
	}

	resolved := make(map[string]struct{}, len(unique))
	if len(unique) > 0 {
		found, err := s.Repo.FindByIDs(ctx, unique)
		if err != nil {
			return fmt.Errorf("lookup users: %w", err)
		}
		for _, u := range found {
			resolved[u.ID] = struct{}{}
		}
	}

	var missing []string
	if hasBlank {
		missing = append(missing, "")
	}
	for _, id := range unique {
		if _, ok := resolved[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &MissingError{IDs: missing}
	}
	return nil
}

func normalizeIDs(ids []string) (unique []string, hasBlank bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			hasBlank = true
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique, hasBlank
}
