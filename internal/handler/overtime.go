package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type OvertimeHandler struct {
	Service *service.OvertimeService
}

// RegisterRoutes mounts the check-in/out endpoints every staff member uses.
func (h OvertimeHandler) RegisterRoutes(r chi.Router) {
	r.Post("/overtime/start", h.start)
	r.Post("/overtime/stop", h.stop)
	r.Get("/overtime/active", h.active)
	r.Post("/overtime/request", h.request)
	r.Get("/overtime", h.list)
}

func (h OvertimeHandler) RegisterManagerRoutes(r chi.Router) {
	r.Post("/overtime", h.schedule)
	r.Post("/overtime/{id}/approve", h.approve)
	r.Post("/overtime/{id}/reject", h.reject)
}

type overtimeRequest struct {
	StaffID         int64  `json:"staffId"`
	Date            string `json:"date" validate:"required"`
	StartTime       string `json:"startTime" validate:"required"`
	DurationMinutes int    `json:"durationMinutes" validate:"required,gt=0"`
	Reason          string `json:"reason"`
}

func (req overtimeRequest) input() service.ScheduleOvertimeInput {
	return service.ScheduleOvertimeInput{
		StaffID:         req.StaffID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
	}
}

func (h OvertimeHandler) start(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	o, err := h.Service.Start(r.Context(), actor)
	if err != nil {
		var early *service.TooEarlyError
		if errors.As(err, &early) {
			writeRawJSON(w, apperr.KindConflict.Status(), apiResponse{
				Success: false,
				Message: err.Error(),
				Data: map[string]any{
					"startTime":   early.StartTime.UTC().Format(time.RFC3339),
					"waitMinutes": early.WaitMinutes,
				},
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "overtime started", overtimeView(*o))
}

func (h OvertimeHandler) stop(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	o, err := h.Service.Stop(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "overtime stopped", overtimeView(*o))
}

func (h OvertimeHandler) active(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	o, err := h.Service.Active(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if o == nil {
		writeRawJSON(w, http.StatusOK, apiResponse{Success: true, Message: "no active overtime"})
		return
	}
	writeJSON(w, http.StatusOK, overtimeView(*o))
}

func (h OvertimeHandler) request(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req overtimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Service.Request(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "overtime requested", overtimeView(*o))
}

func (h OvertimeHandler) schedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req overtimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := h.Service.Schedule(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "overtime scheduled", overtimeView(*o))
}

// list shows staff members their own slots; managers may filter by staffId.
func (h OvertimeHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	staffID, ok := queryID(w, r, "staffId")
	if !ok {
		return
	}
	if !actor.Role.Privileged() {
		if actor.StaffID == nil {
			writeError(w, http.StatusForbidden, "no staff profile is linked to this account")
			return
		}
		staffID = actor.StaffID
	}
	items, err := h.Service.List(r.Context(), service.OvertimeQuery{
		StaffID: staffID,
		Status:  domain.OvertimeStatus(r.URL.Query().Get("status")),
		Month:   r.URL.Query().Get("month"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, overtimeView))
}

func (h OvertimeHandler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Approve)
}

func (h OvertimeHandler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Service.Reject)
}

func (h OvertimeHandler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, service.Actor, int64) (*domain.Overtime, error)) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	o, err := fn(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overtimeView(*o))
}
