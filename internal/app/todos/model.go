package todos

import (
	"strings"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	DefaultPriority = PriorityMedium
)

// ParsePriority accepts the three enum values exactly as spelled.
func ParsePriority(raw string) (Priority, bool) {
	switch p := Priority(strings.TrimSpace(raw)); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	default:
		return "", false
	}
}

type Todo struct {
	ID              string
	OwnerID         string
	Title           string
	Description     string
	Priority        Priority
	Completed       bool
	Tags            []string
	AssignedUserIDs []string
	Notes           []Note
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Note struct {
	ID        string
	Content   string
	AuthorID  string
	CreatedAt time.Time
}

// Patch carries the fields of a partial update. Nil fields are left as they
// are in the store; UpdatedAt is always written.
type Patch struct {
	Title           *string
	Description     *string
	Priority        *Priority
	Completed       *bool
	Tags            *[]string
	AssignedUserIDs *[]string
	UpdatedAt       time.Time
}

func (t Todo) clone() Todo {
	out := t
	out.Tags = append([]string{}, t.Tags...)
	out.AssignedUserIDs = append([]string{}, t.AssignedUserIDs...)
	out.Notes = append([]Note{}, t.Notes...)
	return out
}

func (t *Todo) apply(p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Tags != nil {
		t.Tags = append([]string{}, (*p.Tags)...)
	}
	if p.AssignedUserIDs != nil {
		t.AssignedUserIDs = append([]string{}, (*p.AssignedUserIDs)...)
	}
	t.UpdatedAt = p.UpdatedAt
}

// normalizeList trims entries, drops blanks and repeated values, and keeps
// the first occurrence order. The result is never nil.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
