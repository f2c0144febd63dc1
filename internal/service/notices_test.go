package service

import (
	"context"
	"testing"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/repository/memstore"
)

func TestNoticeLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if _, err := store.CreateUser(ctx, domain.User{Name: email, Email: email, Role: domain.RoleStaff}); err != nil {
			t.Fatalf("user: %v", err)
		}
	}
	svc := NoticeService{Notices: store, Notifications: store, Audit: Auditor{Store: store}, Logger: discardLogger(), Now: fixedClock(testNow)}
	staffActor := Actor{UserID: 2, Role: domain.RoleStaff}

	if _, err := svc.Create(ctx, admin, NoticeInput{Title: "Eid", Body: "Office closed", Priority: "loud"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected priority validation, got %v", err)
	}
	n, err := svc.Create(ctx, admin, NoticeInput{Title: "Eid", Body: "Office closed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if n.Status != domain.NoticeDraft || n.Priority != "normal" {
		t.Fatalf("unexpected notice %+v", n)
	}
	if items, _ := svc.List(ctx, staffActor, ""); len(items) != 0 {
		t.Fatalf("staff must not see drafts")
	}
	if _, err := svc.Update(ctx, admin, n.ID, NoticeInput{Title: "Eid holiday", Body: "Office closed 3 days"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if _, err := svc.Publish(ctx, admin, n.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	notifSvc := NotificationService{Notifications: store, Now: fixedClock(testNow)}
	unread, _ := notifSvc.UnreadCount(ctx, staffActor)
	if unread != 1 {
		t.Fatalf("expected one notification per user, got %d", unread)
	}
	if _, err := svc.Publish(ctx, admin, n.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("double publish must conflict, got %v", err)
	}
	if _, err := svc.Update(ctx, admin, n.ID, NoticeInput{Title: "x", Body: "y"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("published notices are read-only, got %v", err)
	}
	if err := svc.Delete(ctx, admin, n.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("published notices cannot be deleted, got %v", err)
	}
	if items, _ := svc.List(ctx, staffActor, ""); len(items) != 1 || items[0].Title != "Eid holiday" {
		t.Fatalf("staff must see the published notice, got %+v", items)
	}

	if _, err := svc.Unpublish(ctx, admin, n.ID); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if items, _ := svc.List(ctx, staffActor, ""); len(items) != 0 {
		t.Fatalf("unpublished notices are hidden from staff")
	}
	if items, _ := svc.List(ctx, admin, ""); len(items) != 1 {
		t.Fatalf("admins see every notice")
	}
}

func TestNotificationsReadState(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	u, _ := store.CreateUser(ctx, domain.User{Name: "u", Email: "u@example.com", Role: domain.RoleStaff})
	other, _ := store.CreateUser(ctx, domain.User{Name: "o", Email: "o@example.com", Role: domain.RoleStaff})
	var ids []int64
	for _, title := range []string{"one", "two", "three"} {
		n, err := store.CreateNotification(ctx, domain.Notification{UserID: u.ID, Title: title, Type: domain.NotificationInfo})
		if err != nil {
			t.Fatalf("notification: %v", err)
		}
		ids = append(ids, n.ID)
	}
	svc := NotificationService{Notifications: store, Now: fixedClock(testNow)}
	me := Actor{UserID: u.ID, Role: domain.RoleStaff}

	if err := svc.MarkRead(ctx, Actor{UserID: other.ID}, ids[0]); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("foreign notifications are not found, got %v", err)
	}
	if err := svc.MarkRead(ctx, me, ids[0]); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, me); n != 2 {
		t.Fatalf("expected 2 unread, got %d", n)
	}
	if n, _ := svc.MarkAllRead(ctx, me); n != 2 {
		t.Fatalf("expected 2 marked, got %d", n)
	}
	items, _ := svc.List(ctx, me, 0)
	if len(items) != 3 || items[0].Title != "three" {
		t.Fatalf("expected newest first, got %+v", items)
	}
}

func TestCareerApplications(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := CareerService{Careers: store, Audit: Auditor{Store: store}, Logger: discardLogger()}

	p, err := svc.CreatePosition(ctx, admin, "Backend Engineer", "Engineering", "Go")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	a, err := svc.Apply(ctx, p.ID, ApplyInput{Name: "Rafi", Email: "Rafi@Example.com"})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if a.Status != domain.ApplicationNew || a.Email != "rafi@example.com" {
		t.Fatalf("unexpected application %+v", a)
	}
	if _, err := svc.SetApplicationStatus(ctx, admin, a.ID, domain.ApplicationShortlisted); err != nil {
		t.Fatalf("status: %v", err)
	}
	if _, err := svc.SetApplicationStatus(ctx, admin, a.ID, "maybe"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.ClosePosition(ctx, admin, p.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Apply(ctx, p.ID, ApplyInput{Name: "Late", Email: "late@example.com"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("closed positions reject applications, got %v", err)
	}
	open, _ := svc.ListPositions(ctx, true)
	if len(open) != 0 {
		t.Fatalf("expected no open positions, got %d", len(open))
	}
	apps, _ := svc.ListApplications(ctx, &p.ID)
	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(apps))
	}
}
