package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type TransferHandler struct {
	Service *service.TransferService
}

func (h TransferHandler) RegisterRoutes(r chi.Router) {
	r.Get("/external-businesses", h.listBusinesses)
	r.Post("/external-businesses", h.createBusiness)
	r.Get("/profit-transfers", h.listTransfers)
	r.Post("/profit-transfers", h.createTransfer)
}

func (h TransferHandler) listBusinesses(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListBusinesses(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, businessView))
}

func (h TransferHandler) createBusiness(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name    string `json:"name" validate:"required"`
		Contact string `json:"contact"`
		Note    string `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.Service.CreateBusiness(r.Context(), actor, req.Name, req.Contact, req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, businessView(*b))
}

func (h TransferHandler) listTransfers(w http.ResponseWriter, r *http.Request) {
	businessID, ok := queryID(w, r, "businessId")
	if !ok {
		return
	}
	items, err := h.Service.ListTransfers(r.Context(), businessID, r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, transferView))
}

func (h TransferHandler) createTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		BusinessID   int64           `json:"businessId" validate:"required,gt=0"`
		PeriodType   string          `json:"periodType" validate:"required,oneof=month year"`
		Period       string          `json:"period" validate:"required"`
		Amount       decimal.Decimal `json:"amount"`
		TransferDate string          `json:"transferDate"`
		Note         string          `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.Service.CreateTransfer(r.Context(), actor, service.CreateTransferInput{
		BusinessID:   req.BusinessID,
		PeriodType:   domain.PeriodType(req.PeriodType),
		Period:       req.Period,
		Amount:       req.Amount,
		TransferDate: req.TransferDate,
		Note:         req.Note,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transferView(*t))
}
