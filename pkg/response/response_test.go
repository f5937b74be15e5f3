package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-healthcare-practice/pkg/apperror"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		status     int
		message    string
		retryAfter bool
	}{
		{"validation", apperror.New(apperror.KindValidation, "amount is required"), http.StatusBadRequest, "amount is required", false},
		{"not found", fmt.Errorf("load: %w", apperror.New(apperror.KindNotFound, "doctor not found")), http.StatusNotFound, "doctor not found", false},
		{"conflict", apperror.New(apperror.KindConflict, "invoice is already paid"), http.StatusConflict, "invoice is already paid", false},
		{"forbidden", apperror.New(apperror.KindAuthorization, "not yours"), http.StatusForbidden, "not yours", false},
		{"store", apperror.Wrap(apperror.KindStoreUnavailable, "billing store unavailable", errors.New("timeout")), http.StatusServiceUnavailable, "billing store unavailable", true},
		{"plain", errors.New("pq: relation does not exist"), http.StatusInternalServerError, "Failed to do it", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, c.err, "Failed to do it")

			if rec.Code != c.status {
				t.Fatalf("expected status %d, got %d", c.status, rec.Code)
			}

			var body Response
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Success {
				t.Fatalf("expected success=false")
			}
			if body.Message != c.message {
				t.Fatalf("expected message %q, got %q", c.message, body.Message)
			}
			if got := rec.Header().Get("Retry-After") != ""; got != c.retryAfter {
				t.Fatalf("expected Retry-After present=%v", c.retryAfter)
			}
		})
	}
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(20, 40, 45)
	if meta.Page != 3 || meta.TotalPages != 3 || meta.Total != 45 {
		t.Fatalf("unexpected meta %+v", meta)
	}

	empty := NewMeta(20, 0, 0)
	if empty.Page != 1 || empty.TotalPages != 1 {
		t.Fatalf("unexpected empty meta %+v", empty)
	}
}
