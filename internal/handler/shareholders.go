package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type ShareholderHandler struct {
	Service *service.ShareholderService
}

func (h ShareholderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shareholders", h.list)
	r.Post("/shareholders", h.create)
	r.Put("/shareholders/{id}", h.update)
	r.Post("/profit-distributions", h.distribute)
	r.Get("/profit-distributions", h.listDistributions)
}

type shareholderRequest struct {
	Name       string          `json:"name" validate:"required"`
	Email      string          `json:"email" validate:"omitempty,email"`
	Percentage decimal.Decimal `json:"percentage"`
	Active     *bool           `json:"active"`
}

func (req shareholderRequest) input() service.ShareholderInput {
	return service.ShareholderInput{Name: req.Name, Email: req.Email, Percentage: req.Percentage, Active: req.Active}
}

func (h ShareholderHandler) list(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	items, err := h.Service.List(r.Context(), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, shareholderView))
}

func (h ShareholderHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req shareholderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.Create(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shareholderView(*s))
}

func (h ShareholderHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req shareholderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.Update(r.Context(), actor, id, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shareholderView(*s))
}

func (h ShareholderHandler) distribute(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		PeriodType string           `json:"periodType" validate:"required,oneof=month year"`
		Period     string           `json:"period" validate:"required"`
		Amount     *decimal.Decimal `json:"amount"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	items, err := h.Service.Distribute(r.Context(), actor, domain.PeriodType(req.PeriodType), req.Period, req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "profit distributed", listView(items, distributionView))
}

func (h ShareholderHandler) listDistributions(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListDistributions(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, distributionView))
}
