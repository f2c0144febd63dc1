package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type DebitHandler struct {
	Service *service.DebitService
}

func (h DebitHandler) RegisterRoutes(r chi.Router) {
	r.Get("/persons", h.listPersons)
	r.Post("/persons", h.createPerson)
	r.Get("/persons/{id}", h.getPerson)
	r.Get("/persons/{id}/debits", h.listDebits)
	r.Post("/persons/{id}/debits", h.createDebit)
	r.Delete("/debits/{id}", h.deleteDebit)
}

func (h DebitHandler) listPersons(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListPersons(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, personBalanceView))
}

func (h DebitHandler) createPerson(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name  string `json:"name" validate:"required"`
		Phone string `json:"phone"`
		Note  string `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Service.CreatePerson(r.Context(), actor, req.Name, req.Phone, req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, personBalanceView(domain.PersonBalance{Person: *p}))
}

func (h DebitHandler) getPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	balance, debits, err := h.Service.GetPerson(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view := personBalanceView(*balance)
	view["debits"] = listView(debits, debitView)
	writeJSON(w, http.StatusOK, view)
}

func (h DebitHandler) listDebits(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	_, debits, err := h.Service.GetPerson(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(debits, debitView))
}

func (h DebitHandler) createDebit(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Type   string          `json:"type" validate:"required,oneof=Borrow Return"`
		Amount decimal.Decimal `json:"amount"`
		Date   string          `json:"date"`
		Note   string          `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	d, err := h.Service.CreateDebit(r.Context(), actor, service.CreateDebitInput{
		PersonID: id,
		Type:     domain.DebitType(req.Type),
		Amount:   req.Amount,
		Date:     req.Date,
		Note:     req.Note,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, debitView(*d))
}

func (h DebitHandler) deleteDebit(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteDebit(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
