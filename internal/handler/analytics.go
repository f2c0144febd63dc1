package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/service"
)

type AnalyticsHandler struct {
	Service *service.AnalyticsService
}

func (h AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/analytics/dashboard", h.dashboard)
	r.Get("/analytics/audit-logs", h.auditLogs)
	r.Get("/analytics/salary-history/{staffId}", h.salaryHistory)
}

// dashboard takes period=month with month=YYYY-MM, or period=year with year=YYYY.
func (h AnalyticsHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := domain.PeriodType(q.Get("period"))
	value := q.Get("month")
	if typ == domain.PeriodYear {
		value = q.Get("year")
	}
	d, err := h.Service.Dashboard(r.Context(), typ, value)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h AnalyticsHandler) auditLogs(w http.ResponseWriter, r *http.Request) {
	actorID, ok := queryID(w, r, "actorId")
	if !ok {
		return
	}
	page := parsePage(r)
	logs, total, err := h.Service.AuditLogs(r.Context(), ports.AuditFilter{
		Entity:   r.URL.Query().Get("entity"),
		EntityID: r.URL.Query().Get("entityId"),
		ActorID:  actorID,
		Page:     page.ports(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePage(w, listView(logs, auditLogView), total, page)
}

func (h AnalyticsHandler) salaryHistory(w http.ResponseWriter, r *http.Request) {
	staffID, ok := pathID(w, r, "staffId")
	if !ok {
		return
	}
	history, err := h.Service.SalaryHistory(r.Context(), staffID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(history, salaryHistoryView))
}
