package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/reconcile"
	"hrdesk-backend/internal/service"
)

type EarningHandler struct {
	Service    *service.EarningService
	Reconciler reconcile.Reconciler
}

func (h EarningHandler) RegisterRoutes(r chi.Router) {
	r.Get("/earnings", h.list)
	r.Get("/earnings/stats", h.stats)
	r.Post("/earnings/{id}/withdraw", h.withdraw)
	r.Post("/earnings/{id}/revert", h.revert)
	r.Post("/earnings/reconcile", h.reconcile)
}

func (h EarningHandler) list(w http.ResponseWriter, r *http.Request) {
	clientID, ok := queryID(w, r, "clientId")
	if !ok {
		return
	}
	page := parsePage(r)
	items, total, err := h.Service.List(r.Context(), ports.EarningFilter{
		Status:   domain.EarningStatus(r.URL.Query().Get("status")),
		ClientID: clientID,
		Month:    r.URL.Query().Get("month"),
		Page:     page.ports(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePage(w, listView(items, earningView), total, page)
}

func (h EarningHandler) stats(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = v
	}
	stats, err := h.Service.Stats(r.Context(), year)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h EarningHandler) withdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Fees           decimal.Decimal `json:"fees"`
		Tax            decimal.Decimal `json:"tax"`
		ConversionRate decimal.Decimal `json:"conversionRate"`
		Notes          string          `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.Service.Withdraw(r.Context(), actor, id, service.WithdrawInput{
		Fees:           req.Fees,
		Tax:            req.Tax,
		ConversionRate: req.ConversionRate,
		Notes:          req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "earning withdrawn", earningView(*e))
}

func (h EarningHandler) revert(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.Service.Revert(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "withdrawal reverted", earningView(*e))
}

// reconcile defaults to a dry run; pass dryRun=false to apply the plan.
func (h EarningHandler) reconcile(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	dryRun := true
	if raw := r.URL.Query().Get("dryRun"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid dryRun")
			return
		}
		dryRun = v
	}
	actorID := actor.UserID
	report, err := h.Reconciler.Run(r.Context(), &actorID, dryRun)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
