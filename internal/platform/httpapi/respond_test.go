package httpapi

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadRequest, "MISSING_TITLE", "Title is required", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rr.Body.String(); got != `{"error":{"code":"MISSING_TITLE","message":"Title is required"}}`+"\n" {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestWriteInternalHidesCause(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)

	WriteInternal(rr, req, logger, errors.New("pq: password authentication failed"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatalf("cause leaked to client: %s", rr.Body.String())
	}
	if !strings.Contains(logs.String(), "password authentication failed") {
		t.Fatalf("cause not logged: %s", logs.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Title string `json:"title"`
	}

	empty := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := DecodeJSON(empty, &dst); err != nil {
		t.Fatalf("empty body should decode to zero value, got %v", err)
	}

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	if err := DecodeJSON(bad, &dst); err == nil {
		t.Fatalf("expected error for truncated JSON")
	}

	ok := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	if err := DecodeJSON(ok, &dst); err != nil || dst.Title != "x" {
		t.Fatalf("unexpected decode result %q err=%v", dst.Title, err)
	}
}
