package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type CareerHandler struct {
	Service *service.CareerService
}

func (h CareerHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/careers/positions", h.listOpen)
	r.Post("/careers/positions/{id}/apply", h.apply)
}

func (h CareerHandler) RegisterManagerRoutes(r chi.Router) {
	r.Get("/careers/positions/all", h.listAll)
	r.Post("/careers/positions", h.createPosition)
	r.Post("/careers/positions/{id}/close", h.closePosition)
	r.Get("/careers/applications", h.listApplications)
	r.Put("/careers/applications/{id}/status", h.setApplicationStatus)
}

func (h CareerHandler) listOpen(w http.ResponseWriter, r *http.Request) {
	h.listPositions(w, r, true)
}

func (h CareerHandler) listAll(w http.ResponseWriter, r *http.Request) {
	h.listPositions(w, r, false)
}

func (h CareerHandler) listPositions(w http.ResponseWriter, r *http.Request, openOnly bool) {
	items, err := h.Service.ListPositions(r.Context(), openOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, positionView))
}

func (h CareerHandler) createPosition(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req struct {
		Title       string `json:"title" validate:"required"`
		Department  string `json:"department"`
		Description string `json:"description"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.Service.CreatePosition(r.Context(), actor, req.Title, req.Department, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, positionView(*p))
}

func (h CareerHandler) closePosition(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Service.ClosePosition(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionView(*p))
}

func (h CareerHandler) apply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Name      string `json:"name" validate:"required"`
		Email     string `json:"email" validate:"required,email"`
		Phone     string `json:"phone"`
		ResumeURL string `json:"resumeUrl" validate:"omitempty,url"`
		CoverNote string `json:"coverNote" validate:"max=4000"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Service.Apply(r.Context(), id, service.ApplyInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		ResumeURL: req.ResumeURL,
		CoverNote: req.CoverNote,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "application received", map[string]any{"id": a.ID, "status": string(a.Status)})
}

func (h CareerHandler) listApplications(w http.ResponseWriter, r *http.Request) {
	positionID, ok := queryID(w, r, "positionId")
	if !ok {
		return
	}
	items, err := h.Service.ListApplications(r.Context(), positionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, applicationView))
}

func (h CareerHandler) setApplicationStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" validate:"required,oneof=new shortlisted rejected hired"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	a, err := h.Service.SetApplicationStatus(r.Context(), actor, id, domain.ApplicationStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applicationView(*a))
}
