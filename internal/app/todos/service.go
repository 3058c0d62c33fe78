package todos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nuid"
	"github.com/todo-1m/todo-api/internal/app/users"
	"github.com/todo-1m/todo-api/internal/contracts"
	"github.com/todo-1m/todo-api/internal/sharding"
)

var (
	ErrTitleRequired        = errors.New("title is required")
	ErrOwnerRequired        = errors.New("userId is required")
	ErrUnknownOwner         = errors.New("owner does not exist")
	ErrInvalidPriority      = errors.New("priority must be one of low, medium, high")
	ErrInvalidAssignedUsers = errors.New("one or more assigned users do not exist")
	ErrContentRequired      = errors.New("note content is required")
	ErrUnknownAuthor        = errors.New("note author does not exist")
	ErrInvalidPagination    = errors.New("invalid pagination")
)

// DetailError attaches a client-facing detail to one of the sentinel errors.
type DetailError struct {
	Err     error
	Details string
}

func (e *DetailError) Error() string {
	if e.Details == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + ": " + e.Details
}

func (e *DetailError) Unwrap() error { return e.Err }

type PublishFunc func(subject string, payload []byte) error

// UserDirectory is the part of the user service the todo lifecycle depends on.
type UserDirectory interface {
	EnsureExist(ctx context.Context, ids []string) error
	FindByIDs(ctx context.Context, ids []string) ([]users.User, error)
}

type Service struct {
	Repo    Repository
	Users   UserDirectory
	Publish PublishFunc
	Now     func() time.Time
	NewID   func() string
	Logger  *slog.Logger
	// OnPublish observes every publish attempt, nil error on success.
	OnPublish func(eventType string, err error)
}

func NewService(repo Repository, directory UserDirectory, publish PublishFunc) *Service {
	return &Service{
		Repo:    repo,
		Users:   directory,
		Publish: publish,
		Now:     func() time.Time { return time.Now().UTC() },
		NewID:   nuid.Next,
		Logger:  slog.Default(),
	}
}

type Pagination struct {
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
	Limit       int   `json:"limit"`
}

type ListResult struct {
	Todos      []TodoView `json:"todos"`
	Pagination Pagination `json:"pagination"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (TodoView, error) {
	in.normalize()
	if err := validateInput(&in); err != nil {
		return TodoView{}, err
	}
	priority := DefaultPriority
	if in.Priority != "" {
		priority, _ = ParsePriority(in.Priority)
	}
	if err := s.ensureUsers(ctx, []string{in.UserID}, ErrUnknownOwner); err != nil {
		return TodoView{}, err
	}
	if err := s.ensureUsers(ctx, in.AssignedUsers, ErrInvalidAssignedUsers); err != nil {
		return TodoView{}, err
	}

	now := s.Now()
	created, err := s.Repo.Insert(ctx, Todo{
		OwnerID:         in.UserID,
		Title:           in.Title,
		Description:     in.Description,
		Priority:        priority,
		Completed:       in.Completed,
		Tags:            normalizeList(in.Tags),
		AssignedUserIDs: normalizeList(in.AssignedUsers),
		Notes:           []Note{},
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return TodoView{}, fmt.Errorf("insert todo: %w", err)
	}
	s.publish(ctx, contracts.EventTodoCreated, created, "")
	return s.view(ctx, created)
}

func (s *Service) Get(ctx context.Context, id string) (TodoView, error) {
	t, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return TodoView{}, err
	}
	return s.view(ctx, t)
}

// List counts and fetches with the same filter so the total always
// describes the sequence being paged.
func (s *Service) List(ctx context.Context, q ListQuery) (ListResult, error) {
	total, err := s.Repo.Count(ctx, q.Filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("count todos: %w", err)
	}
	page, err := s.Repo.Find(ctx, q.Filter, q.Page.Window())
	if err != nil {
		return ListResult{}, fmt.Errorf("find todos: %w", err)
	}
	views, err := s.views(ctx, page)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{
		Todos: views,
		Pagination: Pagination{
			Total:       total,
			TotalPages:  q.Page.TotalPages(total),
			CurrentPage: q.Page.Number,
			Limit:       q.Page.Size,
		},
	}, nil
}

// Update applies the supplied fields only. updatedAt is refreshed even when
// the patch is empty.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (TodoView, error) {
	in.normalize()
	if err := validateInput(&in); err != nil {
		return TodoView{}, err
	}
	if in.Title != nil && *in.Title == "" {
		return TodoView{}, ErrTitleRequired
	}

	patch := Patch{
		Title:       in.Title,
		Description: in.Description,
		Completed:   in.Completed,
		UpdatedAt:   s.Now(),
	}
	if in.Priority != nil {
		p, _ := ParsePriority(*in.Priority)
		patch.Priority = &p
	}
	if in.Tags != nil {
		tags := normalizeList(*in.Tags)
		patch.Tags = &tags
	}
	if in.AssignedUsers != nil {
		if err := s.ensureUsers(ctx, *in.AssignedUsers, ErrInvalidAssignedUsers); err != nil {
			return TodoView{}, err
		}
		assigned := normalizeList(*in.AssignedUsers)
		patch.AssignedUserIDs = &assigned
	}

	updated, err := s.Repo.Update(ctx, id, patch)
	if err != nil {
		return TodoView{}, notFoundOr(err, "update todo")
	}
	s.publish(ctx, contracts.EventTodoUpdated, updated, "")
	return s.view(ctx, updated)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	deleted, err := s.Repo.Delete(ctx, id)
	if err != nil {
		return notFoundOr(err, "delete todo")
	}
	s.publish(ctx, contracts.EventTodoDeleted, deleted, "")
	return nil
}

func (s *Service) AddNote(ctx context.Context, id string, in NoteInput) (TodoView, error) {
	in.normalize()
	if err := validateInput(&in); err != nil {
		return TodoView{}, err
	}
	if in.UserID != "" {
		if err := s.ensureUsers(ctx, []string{in.UserID}, ErrUnknownAuthor); err != nil {
			return TodoView{}, err
		}
	}

	now := s.Now()
	updated, err := s.Repo.AppendNote(ctx, id, Note{
		Content:   in.Content,
		AuthorID:  in.UserID,
		CreatedAt: now,
	}, now)
	if err != nil {
		return TodoView{}, notFoundOr(err, "append note")
	}
	var noteID string
	if n := len(updated.Notes); n > 0 {
		noteID = updated.Notes[n-1].ID
	}
	s.publish(ctx, contracts.EventTodoNoteAdded, updated, noteID)
	return s.view(ctx, updated)
}

func (s *Service) Tags(ctx context.Context, ownerID string) ([]string, error) {
	tags, err := s.Repo.DistinctTags(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("distinct tags: %w", err)
	}
	return nonNil(tags), nil
}

// Export renders every todo of the owner, newest first, as CSV.
func (s *Service) Export(ctx context.Context, ownerID string) ([]byte, error) {
	all, err := s.Repo.Find(ctx, Filter{OwnerID: ownerID}, Window{})
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}
	return RenderCSV(all)
}

// ensureUsers maps a failed reference check to sentinel, keeping the
// unresolved ids as details. Store failures pass through wrapped.
func (s *Service) ensureUsers(ctx context.Context, ids []string, sentinel error) error {
	err := s.Users.EnsureExist(ctx, ids)
	if err == nil {
		return nil
	}
	var missing *users.MissingError
	if errors.As(err, &missing) {
		return &DetailError{Err: sentinel, Details: missing.Error()}
	}
	return err
}

func (s *Service) view(ctx context.Context, t Todo) (TodoView, error) {
	views, err := s.views(ctx, []Todo{t})
	if err != nil {
		return TodoView{}, err
	}
	return views[0], nil
}

// views resolves the user references of all todos with one lookup.
func (s *Service) views(ctx context.Context, list []Todo) ([]TodoView, error) {
	byID := map[string]users.User{}
	if ids := referencedUserIDs(list); len(ids) > 0 {
		found, err := s.Users.FindByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("resolve users: %w", err)
		}
		for _, u := range found {
			byID[u.ID] = u
		}
	}
	out := make([]TodoView, 0, len(list))
	for _, t := range list {
		out = append(out, newView(t, byID))
	}
	return out, nil
}

// publish emits a lifecycle event after a committed write. A failed publish
// is logged and reported to OnPublish; the write stands.
func (s *Service) publish(ctx context.Context, eventType string, t Todo, noteID string) {
	if s.Publish == nil {
		return
	}
	event := contracts.TodoEvent{
		EventID:    s.NewID(),
		EventType:  eventType,
		TodoID:     t.ID,
		OwnerID:    t.OwnerID,
		Title:      t.Title,
		Priority:   string(t.Priority),
		Completed:  t.Completed,
		NoteID:     noteID,
		OccurredAt: s.Now(),
		ShardID:    sharding.GetShardID(t.OwnerID),
	}
	payload, err := json.Marshal(event)
	if err == nil {
		err = s.Publish(sharding.EventSubject(t.OwnerID), payload)
	}
	if err != nil && s.Logger != nil {
		s.Logger.WarnContext(ctx, "publish todo event failed",
			"event_type", eventType,
			"todo_id", t.ID,
			"error", err,
		)
	}
	if s.OnPublish != nil {
		s.OnPublish(eventType, err)
	}
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, ErrTodoNotFound) {
		return err
	}
	var missing *users.MissingError
	if errors.As(err, &missing) {
		return &DetailError{Err: ErrInvalidAssignedUsers, Details: missing.Error()}
	}
	return fmt.Errorf("%s: %w", op, err)
}
