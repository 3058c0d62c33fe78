package contracts

import "time"

const (
	EventTodoCreated   = "todo.created"
	EventTodoUpdated   = "todo.updated"
	EventTodoDeleted   = "todo.deleted"
	EventTodoNoteAdded = "todo.note_added"
)

// TodoEvent is published after a todo write has been committed to the store.
type TodoEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	TodoID     string    `json:"todo_id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	Completed  bool      `json:"completed"`
	NoteID     string    `json:"note_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	ShardID    int       `json:"shard_id"`
}
