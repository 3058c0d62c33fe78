package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/todo-1m/todo-api/internal/platform/httpapi"
)

type Handler struct {
	Service *Service
	Logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{Service: service, Logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/users", h.handleList)
}

type listResponse struct {
	Message string `json:"message"`
	Users   []User `json:"users"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.List(r.Context())
	if err != nil {
		httpapi.WriteInternal(w, r, h.Logger, err)
		return
	}
	if len(list) == 0 {
		httpapi.WriteJSON(w, http.StatusOK, listResponse{Message: "No users found", Users: []User{}})
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, listResponse{Message: "Users retrieved successfully", Users: list})
}
