package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pennywise/internal/core"
	"pennywise/internal/log"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(map[string]int{"id": 3}).
		Write(rec)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Header().Get("X-Test") != "1" {
		t.Error("custom header missing")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"id":3}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestNoContentHasEmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent().Write(rec)
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestUnencodableBodyIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().Body(map[string]any{"c": make(chan int)}).Write(rec)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get: %w", core.ErrNotFound), http.StatusNotFound},
		{core.ErrInvalidType, http.StatusBadRequest},
		{fmt.Errorf("x: %w", core.ErrDuplicateBudget), http.StatusBadRequest},
		{core.ErrDuplicateCategory, http.StatusBadRequest},
		{core.ErrInvalidPeriod, http.StatusBadRequest},
		{core.ErrEmptyTitle, http.StatusBadRequest},
		{badRequest("nope"), http.StatusBadRequest},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := errorStatus(tt.err); got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorType(t *testing.T) {
	if got := errorType(fmt.Errorf("summary: %w", context.DeadlineExceeded)); got != log.ErrorTypeTimeout {
		t.Errorf("errorType(deadline) = %q, want %q", got, log.ErrorTypeTimeout)
	}
	if got := errorType(errors.New("disk on fire")); got != log.ErrorTypeInternal {
		t.Errorf("errorType(other) = %q, want %q", got, log.ErrorTypeInternal)
	}
}
