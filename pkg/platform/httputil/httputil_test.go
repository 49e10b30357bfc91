package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dErrors "appetite/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   dErrors.Code
		status int
	}{
		{dErrors.CodeNotFound, http.StatusNotFound},
		{dErrors.CodeValidation, http.StatusBadRequest},
		{dErrors.CodeConflict, http.StatusConflict},
		{dErrors.CodeUnauthorized, http.StatusUnauthorized},
		{dErrors.CodeForbidden, http.StatusForbidden},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(tc.code, "msg"))
		if w.Code != tc.status {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.status, w.Code)
		}
	}
}

func TestWriteErrorUntypedIsInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("boom"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Fatalf("internal error message leaked: %s", w.Body.String())
	}
}

type sampleRequest struct {
	Name string `json:"name"`
}

func (r *sampleRequest) Normalize() { r.Name = strings.TrimSpace(r.Name) }

func (r *sampleRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("normalizes then validates", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"  acme  "}`))
		w := httptest.NewRecorder()
		req, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-1")
		if !ok {
			t.Fatalf("expected decode to succeed, got status %d", w.Code)
		}
		if req.Name != "acme" {
			t.Fatalf("expected trimmed name, got %q", req.Name)
		}
	})

	t.Run("validation failure writes 400", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"   "}`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-2"); ok {
			t.Fatalf("expected validation failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
		w := httptest.NewRecorder()
		if _, ok := DecodeAndPrepare[sampleRequest](w, r, logger, r.Context(), "req-3"); ok {
			t.Fatalf("expected decode failure")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestPageParams(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=2", nil)
	page, size, err := PageParams(r, 25, 100)
	if err != nil || page != 2 || size != 25 {
		t.Fatalf("unexpected result page=%d size=%d err=%v", page, size, err)
	}

	for _, q := range []string{"?page=0", "?pageSize=-1", "?page=abc", "?pageSize=101"} {
		r := httptest.NewRequest(http.MethodGet, "/"+q, nil)
		if _, _, err := PageParams(r, 25, 100); !dErrors.HasCode(err, dErrors.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", q, err)
		}
	}
}

func TestQueryTime(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?since=2025-08-01T10:00:00-05:00&until=2025-08-02", nil)
	since, err := QueryTime(r, "since")
	if err != nil || !since.Equal(time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected since=%v err=%v", since, err)
	}
	until, err := QueryTime(r, "until")
	if err != nil || !until.Equal(time.Date(2025, 8, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected until=%v err=%v", until, err)
	}
	missing, err := QueryTime(r, "other")
	if err != nil || !missing.IsZero() {
		t.Fatalf("expected zero time, got %v err=%v", missing, err)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?since=yesterday", nil)
	if _, err := QueryTime(bad, "since"); !dErrors.HasCode(err, dErrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
