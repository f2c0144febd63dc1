package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type AttendanceHandler struct {
	Service *service.AttendanceService
}

func (h AttendanceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/attendance/check-in", h.checkIn)
	r.Post("/attendance/check-out", h.checkOut)
	r.Get("/attendance/me", h.myMonth)
	r.Get("/shifts", h.listShifts)
}

func (h AttendanceHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/attendance", h.listMonth)
	r.Put("/attendance/mark", h.mark)
	r.Post("/shifts", h.createShift)
	r.Post("/shifts/{id}/off-dates", h.addOffDate)
}

func (h AttendanceHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	day, err := h.Service.CheckIn(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "checked in", attendanceView(*day))
}

func (h AttendanceHandler) checkOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	day, err := h.Service.CheckOut(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "checked out", attendanceView(*day))
}

func (h AttendanceHandler) myMonth(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	if actor.StaffID == nil {
		writeError(w, http.StatusForbidden, "no staff profile is linked to this account")
		return
	}
	rows, err := h.Service.Month(r.Context(), actor.StaffID, r.URL.Query().Get("month"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(rows, attendanceView))
}

func (h AttendanceHandler) listMonth(w http.ResponseWriter, r *http.Request) {
	staffID, ok := queryID(w, r, "staffId")
	if !ok {
		return
	}
	rows, err := h.Service.Month(r.Context(), staffID, r.URL.Query().Get("month"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(rows, attendanceView))
}

func (h AttendanceHandler) mark(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		StaffID int64  `json:"staffId" validate:"required,gt=0"`
		Date    string `json:"date" validate:"required"`
		Status  string `json:"status" validate:"required,oneof=present absent late leave grace"`
		Note    string `json:"note"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	day, err := h.Service.Mark(r.Context(), actor, req.StaffID, req.Date, domain.AttendanceStatus(req.Status), req.Note)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attendanceView(*day))
}

func (h AttendanceHandler) listShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Service.ListShifts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(shifts, shiftView))
}

func (h AttendanceHandler) createShift(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Name          string `json:"name" validate:"required"`
		StartTime     string `json:"startTime" validate:"required"`
		EndTime       string `json:"endTime" validate:"required"`
		WeeklyOffDays []int  `json:"weeklyOffDays" validate:"dive,gte=0,lte=6"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	shift, err := h.Service.CreateShift(r.Context(), actor, service.CreateShiftInput{
		Name:          req.Name,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		WeeklyOffDays: req.WeeklyOffDays,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shiftView(*shift))
}

func (h AttendanceHandler) addOffDate(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Date   string `json:"date" validate:"required"`
		Reason string `json:"reason"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	off, err := h.Service.AddOffDate(r.Context(), actor, id, req.Date, req.Reason)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":      off.ID,
		"shiftId": off.ShiftID,
		"date":    formatDate(off.Date),
		"reason":  off.Reason,
	})
}
