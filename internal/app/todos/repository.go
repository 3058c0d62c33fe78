package todos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nuid"
)

var ErrTodoNotFound = errors.New("todo not found")

// Repository is the todo store. Every driver returns ErrTodoNotFound for an
// id it does not hold, including ids it cannot parse.
type Repository interface {
	EnsureSchema(ctx context.Context) error
	// Find returns the todos matching f ordered by createdAt then id, newest
	// first, restricted to w.
	Find(ctx context.Context, f Filter, w Window) ([]Todo, error)
	Count(ctx context.Context, f Filter) (int64, error)
	FindByID(ctx context.Context, id string) (Todo, error)
	// Insert assigns the id and stores t as given.
	Insert(ctx context.Context, t Todo) (Todo, error)
	Update(ctx context.Context, id string, p Patch) (Todo, error)
	// Delete removes the todo and returns it as it was.
	Delete(ctx context.Context, id string) (Todo, error)
	// AppendNote assigns the note id, appends it and sets updatedAt to at.
	AppendNote(ctx context.Context, id string, n Note, at time.Time) (Todo, error)
	// DistinctTags returns the sorted set of tags used by the owner's todos.
	DistinctTags(ctx context.Context, ownerID string) ([]string, error)
}

type PostgresRepository struct {
	Pool  *pgxpool.Pool
	NewID func() string
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{Pool: pool, NewID: nuid.Next}
}

const createTodosTableSQL = `
CREATE TABLE IF NOT EXISTS todos (
  id text PRIMARY KEY,
  user_id text NOT NULL,
  title text NOT NULL,
  description text NOT NULL DEFAULT '',
  priority text NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
  completed boolean NOT NULL DEFAULT false,
  tags text[] NOT NULL DEFAULT '{}',
  assigned_users text[] NOT NULL DEFAULT '{}',
  notes jsonb NOT NULL DEFAULT '[]'::jsonb,
  created_at timestamptz NOT NULL,
  updated_at timestamptz NOT NULL
)`

var createTodoIndexesSQL = []string{
	`CREATE INDEX IF NOT EXISTS todos_user_created_idx ON todos (user_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS todos_tags_idx ON todos USING GIN (tags)`,
	`CREATE INDEX IF NOT EXISTS todos_priority_idx ON todos (priority)`,
	`CREATE INDEX IF NOT EXISTS todos_completed_idx ON todos (completed)`,
}

const todoColumns = `id, user_id, title, description, priority, completed,
        tags, assigned_users, notes, created_at, updated_at`

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, createTodosTableSQL); err != nil {
		return err
	}
	for _, stmt := range createTodoIndexesSQL {
		if _, err := r.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, f Filter, w Window) ([]Todo, error) {
	where, args := buildWhere(f)
	sql := `SELECT ` + todoColumns + ` FROM todos WHERE ` + where + ` ORDER BY created_at DESC, id DESC`
	if w.Limit > 0 {
		args = append(args, w.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if w.Offset > 0 {
		args = append(args, w.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Todo, 0, w.Limit)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildWhere(f)
	var total int64
	err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM todos WHERE `+where, args...).Scan(&total)
	return total, err
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Todo, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id)
	return scanOne(row)
}

func (r *PostgresRepository) Insert(ctx context.Context, t Todo) (Todo, error) {
	t.ID = r.NewID()
	for i := range t.Notes {
		if t.Notes[i].ID == "" {
			t.Notes[i].ID = r.NewID()
		}
	}
	notes, err := encodeNotes(t.Notes)
	if err != nil {
		return Todo{}, err
	}
	row := r.Pool.QueryRow(ctx,
		`INSERT INTO todos (id, user_id, title, description, priority, completed,
		                    tags, assigned_users, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
		 RETURNING `+todoColumns,
		t.ID, t.OwnerID, t.Title, t.Description, string(t.Priority), t.Completed,
		nonNil(t.Tags), nonNil(t.AssignedUserIDs), notes, t.CreatedAt, t.UpdatedAt,
	)
	return scanOne(row)
}

func (r *PostgresRepository) Update(ctx context.Context, id string, p Patch) (Todo, error) {
	set, args := buildSet(p)
	args = append(args, id)
	sql := `UPDATE todos SET ` + set + fmt.Sprintf(` WHERE id = $%d RETURNING `, len(args)) + todoColumns
	return scanOne(r.Pool.QueryRow(ctx, sql, args...))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (Todo, error) {
	row := r.Pool.QueryRow(ctx, `DELETE FROM todos WHERE id = $1 RETURNING `+todoColumns, id)
	return scanOne(row)
}

func (r *PostgresRepository) AppendNote(ctx context.Context, id string, n Note, at time.Time) (Todo, error) {
	n.ID = r.NewID()
	payload, err := encodeNotes([]Note{n})
	if err != nil {
		return Todo{}, err
	}
	row := r.Pool.QueryRow(ctx,
		`UPDATE todos
		 SET notes = notes || $2::jsonb, updated_at = $3
		 WHERE id = $1
		 RETURNING `+todoColumns,
		id, payload, at,
	)
	return scanOne(row)
}

func (r *PostgresRepository) DistinctTags(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT DISTINCT tag
		 FROM todos, unnest(tags) AS tag
		 WHERE user_id = $1
		 ORDER BY tag`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// buildWhere translates f into a WHERE clause with positional arguments.
// The owner is always $1.
func buildWhere(f Filter) (string, []any) {
	clauses := []string{"user_id = $1"}
	args := []any{f.OwnerID}

	if len(f.Priorities) > 0 {
		values := make([]string, len(f.Priorities))
		for i, p := range f.Priorities {
			values[i] = string(p)
		}
		args = append(args, values)
		clauses = append(clauses, fmt.Sprintf("priority = ANY($%d)", len(args)))
	}
	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		clauses = append(clauses, fmt.Sprintf("tags && $%d::text[]", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", n, n))
	}
	return strings.Join(clauses, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildSet renders the SET list of a patch. updated_at is always first.
func buildSet(p Patch) (string, []any) {
	args := []any{p.UpdatedAt}
	cols := []string{"updated_at = $1"}
	add := func(col string, v any) {
		args = append(args, v)
		cols = append(cols, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.Title != nil {
		add("title", *p.Title)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Priority != nil {
		add("priority", string(*p.Priority))
	}
	if p.Completed != nil {
		add("completed", *p.Completed)
	}
	if p.Tags != nil {
		add("tags", nonNil(*p.Tags))
	}
	if p.AssignedUserIDs != nil {
		add("assigned_users", nonNil(*p.AssignedUserIDs))
	}
	return strings.Join(cols, ", "), args
}

type noteRecord struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"user,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func encodeNotes(notes []Note) (string, error) {
	records := make([]noteRecord, len(notes))
	for i, n := range notes {
		records[i] = noteRecord{ID: n.ID, Content: n.Content, AuthorID: n.AuthorID, CreatedAt: n.CreatedAt.UTC()}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeNotes(raw []byte) ([]Note, error) {
	var records []noteRecord
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode notes: %w", err)
		}
	}
	notes := make([]Note, len(records))
	for i, rec := range records {
		notes[i] = Note{ID: rec.ID, Content: rec.Content, AuthorID: rec.AuthorID, CreatedAt: rec.CreatedAt}
	}
	return notes, nil
}

func scanOne(row pgx.Row) (Todo, error) {
	t, err := scanTodo(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Todo{}, ErrTodoNotFound
	}
	return t, err
}

func scanTodo(row pgx.Row) (Todo, error) {
	var (
		t        Todo
		priority string
		notes    []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&priority,
		&t.Completed,
		&t.Tags,
		&t.AssignedUserIDs,
		&notes,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return Todo{}, err
	}
	t.Priority = Priority(priority)
	t.Tags = nonNil(t.Tags)
	t.AssignedUserIDs = nonNil(t.AssignedUserIDs)
	decoded, err := decodeNotes(notes)
	if err != nil {
		return Todo{}, err
	}
	t.Notes = decoded
	return t, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
