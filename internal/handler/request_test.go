package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type namedRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func decodeErrors(t *testing.T, body string, dst any) map[string]string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	if decodeJSON(rec, req, dst) {
		t.Fatalf("expected %s to fail validation", body)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var out apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out.Errors
}

func TestDecodeJSONFieldPaths(t *testing.T) {
	var named namedRequest
	if errs := decodeErrors(t, `{"email":"nope"}`, &named); errs["email"] == "" {
		t.Fatalf("named struct root must be dropped, got %v", errs)
	}

	var anon struct {
		Payments []struct {
			StaffID int64 `json:"staffId" validate:"required"`
		} `json:"payments" validate:"required,dive"`
	}
	errs := decodeErrors(t, `{"payments":[{"staffId":1},{"staffId":0}]}`, &anon)
	if errs["payments[1].staffId"] == "" {
		t.Fatalf("nested path must keep the list index, got %v", errs)
	}

	var top struct {
		Month string `json:"month" validate:"required"`
	}
	if errs := decodeErrors(t, `{}`, &top); errs["month"] != "is required" {
		t.Fatalf("top-level field of an anonymous struct, got %v", errs)
	}
}
