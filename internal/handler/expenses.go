package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/service"
)

type ExpenseHandler struct {
	Service *service.ExpenseService
}

func (h ExpenseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/expenses", h.list)
	r.Post("/expenses", h.create)
	r.Get("/expenses/summary", h.summary)
	r.Get("/expenses/export", h.export)
	r.Put("/expenses/{id}/payment", h.updatePayment)
	r.Delete("/expenses/{id}", h.delete)
}

func expenseQuery(w http.ResponseWriter, r *http.Request) (service.ExpenseQuery, bool) {
	branchID, ok := queryID(w, r, "branchId")
	if !ok {
		return service.ExpenseQuery{}, false
	}
	q := r.URL.Query()
	return service.ExpenseQuery{
		Month:    q.Get("month"),
		BranchID: branchID,
		Category: q.Get("category"),
		Status:   domain.ExpenseStatus(q.Get("status")),
	}, true
}

func (h ExpenseHandler) list(w http.ResponseWriter, r *http.Request) {
	q, ok := expenseQuery(w, r)
	if !ok {
		return
	}
	page := parsePage(r)
	q.Page = page.ports()
	items, total, err := h.Service.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePage(w, listView(items, expenseView), total, page)
}

func (h ExpenseHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Title      string          `json:"title" validate:"required"`
		Category   string          `json:"category"`
		BranchID   *int64          `json:"branchId"`
		Amount     decimal.Decimal `json:"amount"`
		PaidAmount decimal.Decimal `json:"paidAmount"`
		Date       string          `json:"date"`
		Status     string          `json:"status" validate:"omitempty,oneof=pending paid partial_paid"`
		Note       string          `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.Service.Create(r.Context(), actor, service.CreateExpenseInput{
		Title:      req.Title,
		Category:   req.Category,
		BranchID:   req.BranchID,
		Amount:     req.Amount,
		PaidAmount: req.PaidAmount,
		Date:       req.Date,
		Status:     domain.ExpenseStatus(req.Status),
		Note:       req.Note,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseView(*e))
}

func (h ExpenseHandler) summary(w http.ResponseWriter, r *http.Request) {
	q, ok := expenseQuery(w, r)
	if !ok {
		return
	}
	sum, err := h.Service.Summary(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	categories := make([]map[string]any, 0, len(sum.Categories))
	for _, c := range sum.Categories {
		categories = append(categories, map[string]any{
			"category": c.Category,
			"count":    c.Count,
			"amount":   money(c.Amount),
			"paid":     money(c.Paid),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":       money(sum.Total),
		"paid":        money(sum.Paid),
		"outstanding": money(sum.Outstanding),
		"categories":  categories,
	})
}

func (h ExpenseHandler) export(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	q, ok := expenseQuery(w, r)
	if !ok {
		return
	}
	q.Page = ports.Page{}
	items, _, err := h.Service.List(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	suffix := q.Month
	if suffix == "" {
		suffix = time.Now().Format("20060102_150405")
	}

	switch format {
	case "csv":
		data, err := exportExpensesCSV(items)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.csv\"", suffix))
		_, _ = w.Write(data)
	case "xlsx", "excel":
		data, err := exportExpensesXLSX(items)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"expenses_%s.xlsx\"", suffix))
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "invalid format (use csv or xlsx)")
	}
}

func (h ExpenseHandler) updatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status     string          `json:"status" validate:"omitempty,oneof=pending paid partial_paid"`
		PaidAmount decimal.Decimal `json:"paidAmount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.Service.UpdatePayment(r.Context(), actor, id, domain.ExpenseStatus(req.Status), req.PaidAmount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseView(*e))
}

func (h ExpenseHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
