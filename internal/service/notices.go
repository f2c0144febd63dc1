package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type NoticeService struct {
	Notices       ports.NoticeStore
	Notifications ports.NotificationStore
	Audit         Auditor
	Logger        *slog.Logger
	Now           func() time.Time
}

type NoticeInput struct {
	Title    string
	Body     string
	Priority string
}

func normalizePriority(p string) (string, error) {
	switch p = strings.ToLower(strings.TrimSpace(p)); p {
	case "":
		return "normal", nil
	case "low", "normal", "high", "urgent":
		return p, nil
	}
	return "", apperr.Field("priority", "must be one of low, normal, high, urgent")
}

func (in NoticeInput) validate() (NoticeInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, apperr.Field("title", "is required")
	}
	if strings.TrimSpace(in.Body) == "" {
		return in, apperr.Field("body", "is required")
	}
	p, err := normalizePriority(in.Priority)
	if err != nil {
		return in, err
	}
	in.Priority = p
	return in, nil
}

func (s NoticeService) Create(ctx context.Context, actor Actor, in NoticeInput) (*domain.Notice, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	n, err := s.Notices.CreateNotice(ctx, domain.Notice{
		Title:     in.Title,
		Body:      in.Body,
		Priority:  in.Priority,
		Status:    domain.NoticeDraft,
		CreatedBy: actor.ref(),
	})
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	s.Audit.Record(ctx, actor, "notice.create", "notice", n.ID, "draft %q created", n.Title)
	return n, nil
}

// Update edits a notice while it is still a draft.
func (s NoticeService) Update(ctx context.Context, actor Actor, id int64, in NoticeInput) (*domain.Notice, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	existing, err := s.Notices.GetNotice(ctx, id)
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	if existing.Status != domain.NoticeDraft {
		return nil, apperr.Conflict("only draft notices can be edited")
	}
	existing.Title, existing.Body, existing.Priority = in.Title, in.Body, in.Priority
	n, err := s.Notices.UpdateNotice(ctx, *existing)
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	s.Audit.Record(ctx, actor, "notice.update", "notice", id, "notice %q updated", n.Title)
	return n, nil
}

// Publish makes the notice visible to staff and notifies every user once.
func (s NoticeService) Publish(ctx context.Context, actor Actor, id int64) (*domain.Notice, error) {
	existing, err := s.Notices.GetNotice(ctx, id)
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	if existing.Status == domain.NoticePublished {
		return nil, apperr.Conflict("notice is already published")
	}
	now := nowFrom(s.Now)
	n, err := s.Notices.SetNoticeStatus(ctx, id, domain.NoticePublished, now)
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	noticeID := n.ID
	count, err := s.Notifications.FanOutNotification(ctx, domain.Notification{
		NoticeID:  &noticeID,
		Title:     n.Title,
		Message:   summarizeBody(n.Body),
		Type:      domain.NotificationNotice,
		CreatedAt: now,
	})
	if err != nil {
		// the notice stays published; the fan-out is not retried
		loggerOrDefault(s.Logger).ErrorContext(ctx, "notice fan-out failed", "notice_id", id, "error", err)
	}
	loggerOrDefault(s.Logger).InfoContext(ctx, "notice published", "notice_id", id, "recipients", count)
	s.Audit.Record(ctx, actor, "notice.publish", "notice", id, "published to %d users", count)
	return n, nil
}

func (s NoticeService) Unpublish(ctx context.Context, actor Actor, id int64) (*domain.Notice, error) {
	existing, err := s.Notices.GetNotice(ctx, id)
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	if existing.Status != domain.NoticePublished {
		return nil, apperr.Conflict("only published notices can be unpublished")
	}
	n, err := s.Notices.SetNoticeStatus(ctx, id, domain.NoticeUnpublished, nowFrom(s.Now))
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	s.Audit.Record(ctx, actor, "notice.unpublish", "notice", id, "notice unpublished")
	return n, nil
}

func (s NoticeService) Delete(ctx context.Context, actor Actor, id int64) error {
	existing, err := s.Notices.GetNotice(ctx, id)
	if err != nil {
		return storeErr(err, "notice")
	}
	if existing.Status != domain.NoticeDraft {
		return apperr.Conflict("only draft notices can be deleted")
	}
	if err := s.Notices.DeleteNotice(ctx, id); err != nil {
		return storeErr(err, "notice")
	}
	s.Audit.Record(ctx, actor, "notice.delete", "notice", id, "draft deleted")
	return nil
}

// List returns every notice to privileged users and the published ones to staff.
func (s NoticeService) List(ctx context.Context, actor Actor, status domain.NoticeStatus) ([]domain.Notice, error) {
	if !actor.Role.Privileged() {
		status = domain.NoticePublished
	}
	items, err := s.Notices.ListNotices(ctx, status)
	if err != nil {
		return nil, storeErr(err, "notice")
	}
	if items == nil {
		items = []domain.Notice{}
	}
	return items, nil
}

func summarizeBody(body string) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= 140 {
		return body
	}
	return string(runes[:137]) + "..."
}

type NotificationService struct {
	Notifications ports.NotificationStore
	Now           func() time.Time
}

func (s NotificationService) List(ctx context.Context, actor Actor, limit int) ([]domain.Notification, error) {
	items, err := s.Notifications.ListNotifications(ctx, actor.UserID, limit)
	if err != nil {
		return nil, storeErr(err, "notification")
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, nil
}

func (s NotificationService) UnreadCount(ctx context.Context, actor Actor) (int, error) {
	n, err := s.Notifications.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, storeErr(err, "notification")
	}
	return n, nil
}

func (s NotificationService) MarkRead(ctx context.Context, actor Actor, id int64) error {
	if err := s.Notifications.MarkRead(ctx, actor.UserID, id, nowFrom(s.Now)); err != nil {
		return storeErr(err, "notification")
	}
	return nil
}

func (s NotificationService) MarkAllRead(ctx context.Context, actor Actor) (int, error) {
	n, err := s.Notifications.MarkAllRead(ctx, actor.UserID, nowFrom(s.Now))
	if err != nil {
		return 0, storeErr(err, "notification")
	}
	return n, nil
}
