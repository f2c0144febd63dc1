package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
)

type pageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

type apiResponse struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message,omitempty"`
	Data        any               `json:"data,omitempty"`
	Meta        *pageMeta         `json:"meta,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
	Suggestions []string          `json:"suggestions,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	writeRawJSON(w, status, apiResponse{Success: true, Data: payload})
}

func writeMessage(w http.ResponseWriter, status int, message string, payload any) {
	writeRawJSON(w, status, apiResponse{Success: true, Message: message, Data: payload})
}

func writePage(w http.ResponseWriter, payload any, total int, p pageQuery) {
	pages := 1
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	writeRawJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Data:    payload,
		Meta:    &pageMeta{Total: total, Page: p.Page, TotalPages: max(pages, 1)},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{Success: false, Message: message})
}

// writeServiceError renders err with the status its kind carries.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	status := e.Kind.Status()
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeRawJSON(w, status, apiResponse{
		Success:     false,
		Message:     e.Message,
		Errors:      e.Fields,
		Suggestions: e.Suggestions,
	})
}

// money renders an amount as a JSON number with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}
