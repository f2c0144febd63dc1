package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type InvitationHandler struct {
	Service *service.InvitationService
}

// RegisterPublicRoutes mounts the endpoints an invitee reaches before having an account.
func (h InvitationHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/invitations/validate/{token}", h.validate)
	r.Post("/invitations/accept/{token}", h.accept)
}

func (h InvitationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/invitations", h.create)
	r.Post("/invitations/bulk", h.bulk)
	r.Get("/invitations", h.list)
	r.Post("/invitations/{id}/cancel", h.cancel)
	r.Post("/invitations/{id}/resend", h.resend)
	r.Get("/invitations/{id}/qr", h.qr)
}

func (h InvitationHandler) now() time.Time {
	if h.Service.Now != nil {
		return h.Service.Now()
	}
	return time.Now()
}

func (h InvitationHandler) view(inv domain.Invitation) map[string]any {
	return map[string]any{
		"id":          inv.ID,
		"email":       inv.Email,
		"name":        inv.Name,
		"role":        string(inv.Role),
		"department":  inv.Department,
		"designation": inv.Designation,
		"salary":      money(inv.Salary),
		"branchId":    inv.BranchID,
		"status":      string(inv.StatusAt(h.now())),
		"link":        h.Service.Link(inv),
		"expiresAt":   inv.ExpiresAt.UTC().Format(time.RFC3339),
		"usedAt":      formatTime(inv.UsedAt),
		"cancelledAt": formatTime(inv.CancelledAt),
		"createdAt":   inv.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type invitationRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Name        string          `json:"name"`
	Role        string          `json:"role" validate:"omitempty,oneof=admin manager staff"`
	Department  string          `json:"department"`
	Designation string          `json:"designation"`
	Salary      decimal.Decimal `json:"salary"`
	BranchID    *int64          `json:"branchId"`
}

func (req invitationRequest) input() service.CreateInvitationInput {
	return service.CreateInvitationInput{
		Email:       req.Email,
		Name:        req.Name,
		Role:        domain.UserRole(req.Role),
		Department:  req.Department,
		Designation: req.Designation,
		Salary:      req.Salary,
		BranchID:    req.BranchID,
	}
}

func (h InvitationHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req invitationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.Service.Create(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "invitation created", h.view(*inv))
}

// bulk validates items individually so one bad address does not reject the batch.
func (h InvitationHandler) bulk(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Invitations []struct {
			Email       string          `json:"email"`
			Name        string          `json:"name"`
			Role        string          `json:"role"`
			Department  string          `json:"department"`
			Designation string          `json:"designation"`
			Salary      decimal.Decimal `json:"salary"`
			BranchID    *int64          `json:"branchId"`
		} `json:"invitations" validate:"required,min=1,max=200"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	items := make([]service.CreateInvitationInput, 0, len(req.Invitations))
	for _, it := range req.Invitations {
		items = append(items, invitationRequest(it).input())
	}
	res := h.Service.Bulk(r.Context(), actor, items)
	writeJSON(w, http.StatusOK, bulkView(res, h.view))
}

func (h InvitationHandler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, h.view))
}

func (h InvitationHandler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.Service.Cancel(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "invitation cancelled", h.view(*inv))
}

func (h InvitationHandler) resend(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.Service.Resend(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "invitation renewed", h.view(*inv))
}

func (h InvitationHandler) qr(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := h.Service.QRCode(r.Context(), id, size)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"invitation_%d.png\"", id))
	_, _ = w.Write(png)
}

func (h InvitationHandler) validate(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.Validate(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"email":       inv.Email,
		"name":        inv.Name,
		"role":        string(inv.Role),
		"department":  inv.Department,
		"designation": inv.Designation,
		"expiresAt":   inv.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h InvitationHandler) accept(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password" validate:"required,min=8"`
		Phone    string `json:"phone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	user, staff, err := h.Service.Accept(r.Context(), chi.URLParam(r, "token"), service.AcceptInvitationInput{
		Name:     req.Name,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "invitation accepted", map[string]any{
		"user":  userView(*user),
		"staff": staffView(*staff),
	})
}
