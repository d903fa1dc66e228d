package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	dErrors "examboard/pkg/domain-errors"
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

type fieldErr struct{}

func (fieldErr) Error() string                  { return "invalid step" }
func (fieldErr) DomainCode() dErrors.Code       { return dErrors.CodeValidation }
func (fieldErr) FieldErrors() map[string]string { return map[string]string{"full_name": "full name is required"} }
func (fieldErr) StepIndex() int                 { return 0 }

func TestWriteError_FieldsAndStep(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fieldErr{})

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, w.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Fields["full_name"] == "" {
		t.Fatalf("expected full_name field error, got %v", body.Fields)
	}
	if body.StepIndex == nil || *body.StepIndex != 0 {
		t.Fatalf("expected step_index 0, got %v", body.StepIndex)
	}
}

func TestStatusFor_Capacity(t *testing.T) {
	if got := StatusFor(dErrors.CodeCapacityExhausted); got != http.StatusConflict {
		t.Fatalf("expected 409 for capacity exhaustion, got %d", got)
	}
	if got := StatusFor(dErrors.CodeUploadFailed); got != http.StatusBadGateway {
		t.Fatalf("expected 502 for upload failure, got %d", got)
	}
}
