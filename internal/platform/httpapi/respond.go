// Package httpapi holds the JSON envelope shared by every endpoint.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	CodeInvalidJSON   = "INVALID_JSON"
	CodeInternal      = "INTERNAL_ERROR"
	CodeRouteNotFound = "ROUTE_NOT_FOUND"
	CodeMethodBlocked = "METHOD_NOT_ALLOWED"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message, details string) {
	WriteJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

// WriteInternal logs err with the request context and answers with a generic
// 500. Internal detail never reaches the client.
func WriteInternal(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(r.Context(), "request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	WriteError(w, http.StatusInternalServerError, CodeInternal, "Internal server error", "An unexpected error occurred")
}

// DecodeJSON decodes the request body into dst. An empty body leaves dst at
// its zero value so that field validation reports what is missing.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, CodeRouteNotFound, "Route not found", r.Method+" "+r.URL.Path)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusMethodNotAllowed, CodeMethodBlocked, "Method not allowed", r.Method+" "+r.URL.Path)
}
