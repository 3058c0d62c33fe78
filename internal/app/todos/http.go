package todos

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todo-1m/todo-api/internal/platform/httpapi"
)

const (
	CodeMissingUserID        = "MISSING_USER_ID"
	CodeMissingTitle         = "MISSING_TITLE"
	CodeMissingNoteContent   = "MISSING_NOTE_CONTENT"
	CodeInvalidPriority      = "INVALID_PRIORITY"
	CodeInvalidPagination    = "INVALID_PAGINATION"
	CodeInvalidUserID        = "INVALID_USER_ID"
	CodeInvalidAssignedUsers = "INVALID_ASSIGNED_USERS"
	CodeInvalidNoteAuthor    = "INVALID_NOTE_AUTHOR"
	CodeTodoNotFound         = "TODO_NOT_FOUND"
)

type Handler struct {
	Service *Service
	Logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/tags", h.handleTags)
		r.Get("/export", h.handleExport)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Post("/{id}/notes", h.handleAddNote)
	})
}

type listResponse struct {
	Message string     `json:"message"`
	Data    ListResult `json:"data"`
}

type todoResponse struct {
	Message string   `json:"message"`
	Todo    TodoView `json:"todo"`
}

type deleteResponse struct {
	Message string `json:"message"`
	TodoID  string `json:"todoId"`
}

type tagsResponse struct {
	Message string   `json:"message"`
	Tags    []string `json:"tags"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	result, err := h.Service.List(r.Context(), q)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, listResponse{Message: "Todos retrieved successfully", Data: result})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, todoResponse{Message: "Todo retrieved successfully", Todo: view})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpapi.DecodeJSON(r, &in); err != nil {
		writeInvalidJSON(w, err)
		return
	}
	view, err := h.Service.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, todoResponse{Message: "Todo created successfully", Todo: view})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpapi.DecodeJSON(r, &in); err != nil {
		writeInvalidJSON(w, err)
		return
	}
	view, err := h.Service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, todoResponse{Message: "Todo updated successfully", Todo: view})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, deleteResponse{Message: "Todo deleted successfully", TodoID: id})
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	var in NoteInput
	if err := httpapi.DecodeJSON(r, &in); err != nil {
		writeInvalidJSON(w, err)
		return
	}
	view, err := h.Service.AddNote(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, todoResponse{Message: "Note added successfully", Todo: view})
}

func (h *Handler) handleTags(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerFromQuery(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	tags, err := h.Service.Tags(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, tagsResponse{Message: "Tags retrieved successfully", Tags: tags})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	ownerID, err := OwnerFromQuery(r.URL.Query())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	body, err := h.Service.Export(r.Context(), ownerID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="todos.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

type clientError struct {
	sentinel error
	status   int
	code     string
	message  string
	details  string
}

var clientErrors = []clientError{
	{ErrOwnerRequired, http.StatusBadRequest, CodeMissingUserID, "User ID is required", "Please provide a valid user ID"},
	{ErrTitleRequired, http.StatusBadRequest, CodeMissingTitle, "Title is required", "Please provide a title for the todo"},
	{ErrContentRequired, http.StatusBadRequest, CodeMissingNoteContent, "Note content is required", "Please provide content for the note"},
	{ErrInvalidPriority, http.StatusBadRequest, CodeInvalidPriority, "Invalid priority", "Priority must be one of low, medium, high"},
	{ErrInvalidPagination, http.StatusBadRequest, CodeInvalidPagination, "Invalid pagination", "page and limit must be positive integers"},
	{ErrUnknownOwner, http.StatusBadRequest, CodeInvalidUserID, "User does not exist", "Please provide a valid user ID"},
	{ErrInvalidAssignedUsers, http.StatusBadRequest, CodeInvalidAssignedUsers, "One or more assigned users do not exist", "Please provide valid user IDs"},
	{ErrUnknownAuthor, http.StatusBadRequest, CodeInvalidNoteAuthor, "Note author does not exist", "Please provide a valid user ID"},
	{ErrTodoNotFound, http.StatusNotFound, CodeTodoNotFound, "Todo not found", ""},
}

// writeServiceError maps domain errors to their client response. Anything
// unrecognised is logged and answered with a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, ce := range clientErrors {
		if !errors.Is(err, ce.sentinel) {
			continue
		}
		details := ce.details
		var detailed *DetailError
		if errors.As(err, &detailed) && detailed.Details != "" {
			details = detailed.Details
		}
		if ce.sentinel == ErrTodoNotFound {
			details = "No todo found with ID: " + chi.URLParam(r, "id")
		}
		httpapi.WriteError(w, ce.status, ce.code, ce.message, details)
		return
	}
	httpapi.WriteInternal(w, r, h.Logger, err)
}

func writeInvalidJSON(w http.ResponseWriter, err error) {
	httpapi.WriteError(w, http.StatusBadRequest, httpapi.CodeInvalidJSON, "Invalid JSON payload", err.Error())
}
