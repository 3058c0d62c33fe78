package todos

import (
	"time"

	"github.com/todo-1m/todo-api/internal/app/users"
)

// TodoView is the JSON shape of a todo with its user references resolved.
type TodoView struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Priority      Priority     `json:"priority"`
	Completed     bool         `json:"completed"`
	UserID        string       `json:"userId"`
	Tags          []string     `json:"tags"`
	AssignedUsers []users.User `json:"assignedUsers"`
	Notes         []NoteView   `json:"notes"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// NoteView carries the resolved author, or null when the note has none or
// the author no longer exists.
type NoteView struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	User      *users.User `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
}

// referencedUserIDs collects assignee and note author ids across todos.
func referencedUserIDs(todos []Todo) []string {
	var ids []string
	for _, t := range todos {
		ids = append(ids, t.AssignedUserIDs...)
		for _, n := range t.Notes {
			if n.AuthorID != "" {
				ids = append(ids, n.AuthorID)
			}
		}
	}
	return ids
}

// newView resolves references from byID. Assignees that no longer exist are
// left out.
func newView(t Todo, byID map[string]users.User) TodoView {
	v := TodoView{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Priority:      t.Priority,
		Completed:     t.Completed,
		UserID:        t.OwnerID,
		Tags:          nonNil(t.Tags),
		AssignedUsers: make([]users.User, 0, len(t.AssignedUserIDs)),
		Notes:         make([]NoteView, 0, len(t.Notes)),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	for _, id := range t.AssignedUserIDs {
		if u, ok := byID[id]; ok {
			v.AssignedUsers = append(v.AssignedUsers, u)
		}
	}
	for _, n := range t.Notes {
		nv := NoteView{ID: n.ID, Content: n.Content, CreatedAt: n.CreatedAt}
		if u, ok := byID[n.AuthorID]; ok {
			author := u
			nv.User = &author
		}
		v.Notes = append(v.Notes, nv)
	}
	return v
}
