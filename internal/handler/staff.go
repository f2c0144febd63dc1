package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/service"
)

type StaffHandler struct {
	Service  *service.StaffService
	Branches *service.BranchService
}

func (h StaffHandler) RegisterRoutes(r chi.Router) {
	r.Get("/staff/me", h.me)
	r.Put("/staff/me/salary-pin", h.setSalaryPin)
	r.Post("/staff/me/salary", h.mySalary)
	r.Get("/branches", h.listBranches)
}

func (h StaffHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/staff", h.list)
	r.Get("/staff/{id}", h.get)
	r.Put("/staff/{id}", h.update)
	r.Put("/staff/{id}/salary", h.changeSalary)
	r.Put("/staff/{id}/status", h.setStatus)
	r.Post("/branches", h.createBranch)
}

func (h StaffHandler) list(w http.ResponseWriter, r *http.Request) {
	branchID, ok := queryID(w, r, "branchId")
	if !ok {
		return
	}
	q := r.URL.Query()
	page := parsePage(r)
	items, total, err := h.Service.List(r.Context(), ports.StaffFilter{
		BranchID:   branchID,
		Status:     domain.StaffStatus(q.Get("status")),
		Department: q.Get("department"),
		Search:     q.Get("search"),
		Page:       page.ports(),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writePage(w, listView(items, staffView), total, page)
}

func (h StaffHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staffView(*s))
}

func (h StaffHandler) me(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	s, err := h.Service.Me(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view := staffView(*s)
	if !s.SalaryVisible {
		delete(view, "salary")
	}
	writeJSON(w, http.StatusOK, view)
}

func (h StaffHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Name          *string `json:"name"`
		Phone         *string `json:"phone"`
		Department    *string `json:"department"`
		Designation   *string `json:"designation"`
		JoinDate      *string `json:"joinDate"`
		BranchID      *int64  `json:"branchId"`
		ShiftID       *int64  `json:"shiftId"`
		SalaryVisible *bool   `json:"salaryVisible"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.UpdateProfile(r.Context(), actor, id, service.UpdateStaffInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Department:    req.Department,
		Designation:   req.Designation,
		JoinDate:      req.JoinDate,
		BranchID:      req.BranchID,
		ShiftID:       req.ShiftID,
		SalaryVisible: req.SalaryVisible,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, staffView(*s))
}

func (h StaffHandler) changeSalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Salary decimal.Decimal `json:"salary"`
		Reason string          `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.Service.ChangeSalary(r.Context(), actor, id, req.Salary, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "salary updated", staffView(*s))
}

func (h StaffHandler) setStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" validate:"required,oneof=active inactive"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.SetStatus(r.Context(), actor, id, domain.StaffStatus(req.Status)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "status updated", nil)
}

func (h StaffHandler) setSalaryPin(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Pin string `json:"pin" validate:"required,numeric,min=4,max=6"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.Service.SetSalaryPin(r.Context(), actor, req.Pin); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "salary pin saved", nil)
}

func (h StaffHandler) mySalary(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Pin string `json:"pin" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.Service.MySalary(r.Context(), actor, req.Pin)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"staffId": view.StaffID,
		"salary":  money(view.Salary),
		"history": listView(view.History, salaryHistoryView),
	})
}

func branchView(b domain.Branch) map[string]any {
	return map[string]any{"id": b.ID, "name": b.Name, "address": b.Address}
}

func (h StaffHandler) listBranches(w http.ResponseWriter, r *http.Request) {
	items, err := h.Branches.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, branchView))
}

func (h StaffHandler) createBranch(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name    string `json:"name" validate:"required"`
		Address string `json:"address"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.Branches.Create(r.Context(), actor, req.Name, req.Address)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, branchView(*b))
}
