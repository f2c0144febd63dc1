package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/service"
)

type NoticeHandler struct {
	Notices       *service.NoticeService
	Notifications *service.NotificationService
}

func (h NoticeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notices", h.list)
	r.Get("/notifications", h.listNotifications)
	r.Get("/notifications/unread-count", h.unreadCount)
	r.Post("/notifications/{id}/read", h.markRead)
	r.Post("/notifications/read-all", h.markAllRead)
}

func (h NoticeHandler) RegisterManagerRoutes(r chi.Router) {
	r.Post("/notices", h.create)
	r.Put("/notices/{id}", h.update)
	r.Post("/notices/{id}/publish", h.publish)
	r.Post("/notices/{id}/unpublish", h.unpublish)
	r.Delete("/notices/{id}", h.delete)
}

type noticeRequest struct {
	Title    string `json:"title" validate:"required"`
	Body     string `json:"body" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

func (req noticeRequest) input() service.NoticeInput {
	return service.NoticeInput{Title: req.Title, Body: req.Body, Priority: req.Priority}
}

func (h NoticeHandler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	items, err := h.Notices.List(r.Context(), actor, domain.NoticeStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, noticeView))
}

func (h NoticeHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	var req noticeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.Notices.Create(r.Context(), actor, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, noticeView(*n))
}

func (h NoticeHandler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req noticeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.Notices.Update(r.Context(), actor, id, req.input())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, noticeView(*n))
}

func (h NoticeHandler) publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.Notices.Publish(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "notice published", noticeView(*n))
}

func (h NoticeHandler) unpublish(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.Notices.Unpublish(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "notice unpublished", noticeView(*n))
}

func (h NoticeHandler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Notices.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h NoticeHandler) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := h.Notifications.List(r.Context(), actor, min(max(limit, 0), 200))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listView(items, notificationView))
}

func (h NoticeHandler) unreadCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	n, err := h.Notifications.UnreadCount(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

func (h NoticeHandler) markRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Notifications.MarkRead(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "notification read", nil)
}

func (h NoticeHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentActor(w, r)
	if !ok {
		return
	}
	n, err := h.Notifications.MarkAllRead(r.Context(), actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": n})
}
