package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/service"
)

type ClientHandler struct {
	Service *service.ClientService
}

func (h ClientHandler) RegisterRoutes(r chi.Router) {
	r.Get("/clients", h.listClients)
	r.Post("/clients", h.createClient)
	r.Get("/clients/{id}", h.getClient)
	r.Get("/orders", h.listOrders)
	r.Post("/orders", h.createOrder)
	r.Put("/orders/{id}/status", h.updateOrderStatus)
}

func (h ClientHandler) listClients(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.ListClients(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, clientView))
}

func (h ClientHandler) createClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		ClientID string `json:"clientId" validate:"required"`
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"omitempty,email"`
		Country  string `json:"country"`
		Currency string `json:"currency" validate:"omitempty,len=3"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := h.Service.CreateClient(r.Context(), actor, service.CreateClientInput{
		ClientCode: req.ClientID,
		Name:       req.Name,
		Email:      req.Email,
		Country:    req.Country,
		Currency:   req.Currency,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, clientView(*c))
}

func (h ClientHandler) getClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Service.GetClient(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	orders, err := h.Service.ListOrders(r.Context(), ports.OrderFilter{ClientID: &c.ID})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view := clientView(*c)
	view["orders"] = listView(orders, orderView)
	writeJSON(w, http.StatusOK, view)
}

func (h ClientHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	clientID, ok := queryID(w, r, "clientId")
	if !ok {
		return
	}
	f := ports.OrderFilter{ClientID: clientID, Status: domain.OrderStatus(r.URL.Query().Get("status"))}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := domain.ParseMonth(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "month must be formatted as YYYY-MM")
			return
		}
		f.Month = &m
	}
	items, err := h.Service.ListOrders(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, orderView))
}

func (h ClientHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		ClientID   int64           `json:"clientId" validate:"required,gt=0"`
		Title      string          `json:"title" validate:"required"`
		TotalPrice decimal.Decimal `json:"totalPrice"`
		OrderDate  string          `json:"orderDate"`
		Status     string          `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Service.CreateOrder(r.Context(), actor, service.CreateOrderInput{
		ClientID:   req.ClientID,
		Title:      req.Title,
		TotalPrice: req.TotalPrice,
		OrderDate:  req.OrderDate,
		Status:     domain.OrderStatus(req.Status),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderView(*o))
}

func (h ClientHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" validate:"required,oneof=pending in_progress completed cancelled"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Service.UpdateOrderStatus(r.Context(), actor, id, domain.OrderStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderView(*o))
}
