package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bookstore-backend/internal/apperr"
)

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind   apperr.Kind
		status int
	}{
		{apperr.KindValidation, http.StatusBadRequest},
		{apperr.KindPersistence, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindPermission, http.StatusForbidden},
		{apperr.KindUpstreamStorage, http.StatusInternalServerError},
		{apperr.KindUnknown, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusForKind(tt.kind); got != tt.status {
			t.Errorf("StatusForKind(%s): expected %d, got %d", tt.kind, tt.status, got)
		}
	}
}

func TestFromError_ClassifiedError(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, apperr.New(apperr.KindPermission, "you do not own this book"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Success {
		t.Error("success should be false")
	}
	if resp.Error != "you do not own this book" {
		t.Errorf("unexpected error message: %s", resp.Error)
	}
}

func TestFromError_UnknownKeepsUnderlyingMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, apperr.Wrap(apperr.KindUnknown, "failed to persist book record", errors.New("connection refused")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("expected underlying message in body, got %s", rec.Body.String())
	}
}

func TestFromError_UnclassifiedError(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
