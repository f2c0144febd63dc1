package service

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/repository/memstore"
)

func newInvitationService(store *memstore.Store, now time.Time) InvitationService {
	n := 0
	return InvitationService{
		Invitations: store,
		Users:       store,
		Audit:       Auditor{Store: store},
		Logger:      discardLogger(),
		Location:    time.UTC,
		TTL:         24 * time.Hour,
		BaseURL:     "https://hr.example.com/invite/",
		Now:         fixedClock(now),
		NewToken: func() string {
			n++
			return fmt.Sprintf("token-%d", n)
		},
	}
}

func countStaff(t *testing.T, store *memstore.Store) int {
	t.Helper()
	_, total, err := store.ListStaff(context.Background(), ports.StaffFilter{})
	if err != nil {
		t.Fatalf("list staff: %v", err)
	}
	return total
}

func TestInvitationAcceptOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newInvitationService(store, testNow)

	inv, err := svc.Create(ctx, admin, CreateInvitationInput{Email: "Nadia@Example.com", Name: "Nadia", Department: "Design", Salary: dec(t, "30000")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Email != "nadia@example.com" || inv.Role != domain.RoleStaff || !inv.ExpiresAt.Equal(testNow.Add(24*time.Hour)) {
		t.Fatalf("unexpected invitation %+v", inv)
	}
	if got := svc.Link(*inv); got != "https://hr.example.com/invite/token-1" {
		t.Fatalf("unexpected link %s", got)
	}
	if _, err := svc.Create(ctx, admin, CreateInvitationInput{Email: "nadia@example.com"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("an active invitation must block a second one, got %v", err)
	}

	if _, _, err := svc.Accept(ctx, inv.Token, AcceptInvitationInput{Password: "short"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected password validation, got %v", err)
	}
	user, staff, err := svc.Accept(ctx, inv.Token, AcceptInvitationInput{Password: "correct horse", Phone: "0171"})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if staff.StaffCode != "STF-0001" || staff.UserID == nil || *staff.UserID != user.ID {
		t.Fatalf("unexpected staff %+v", staff)
	}
	if staff.Name != "Nadia" || !staff.Salary.Equal(dec(t, "30000")) || !staff.JoinDate.Equal(date(t, "2025-03-20")) {
		t.Fatalf("invitation details not carried over: %+v", staff)
	}

	if _, _, err := svc.Accept(ctx, inv.Token, AcceptInvitationInput{Password: "correct horse"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second accept must fail, got %v", err)
	}
	if n := countStaff(t, store); n != 1 {
		t.Fatalf("expected exactly one staff member, got %d", n)
	}
	if _, err := svc.Create(ctx, admin, CreateInvitationInput{Email: "nadia@example.com"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("existing users cannot be invited, got %v", err)
	}
}

func TestInvitationSequentialStaffCodes(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newInvitationService(store, testNow)
	for i, email := range []string{"a@example.com", "b@example.com"} {
		inv, err := svc.Create(ctx, admin, CreateInvitationInput{Email: email, Name: email})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		_, staff, err := svc.Accept(ctx, inv.Token, AcceptInvitationInput{Password: "password1"})
		if err != nil {
			t.Fatalf("accept: %v", err)
		}
		if want := fmt.Sprintf("STF-%04d", i+1); staff.StaffCode != want {
			t.Fatalf("expected %s, got %s", want, staff.StaffCode)
		}
	}
}

func TestInvitationExpiredCreatesNothing(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	inv, err := newInvitationService(store, testNow).Create(ctx, admin, CreateInvitationInput{Email: "late@example.com", Name: "Late"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	later := newInvitationService(store, testNow.Add(25*time.Hour))
	if _, err := later.Validate(ctx, inv.Token); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected expired conflict, got %v", err)
	}
	if _, _, err := later.Accept(ctx, inv.Token, AcceptInvitationInput{Password: "password1"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected expired conflict, got %v", err)
	}
	if n := countStaff(t, store); n != 0 {
		t.Fatalf("expired token created %d staff", n)
	}
	if _, err := later.Create(ctx, admin, CreateInvitationInput{Email: "late@example.com"}); err != nil {
		t.Fatalf("an expired invitation must not block a new one: %v", err)
	}
}

func TestInvitationCancelAndResend(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newInvitationService(store, testNow)

	inv, _ := svc.Create(ctx, admin, CreateInvitationInput{Email: "r@example.com", Name: "R"})
	renewed, err := svc.Resend(ctx, admin, inv.ID)
	if err != nil {
		t.Fatalf("resend: %v", err)
	}
	if renewed.Token == inv.Token {
		t.Fatalf("resend must issue a new token")
	}
	if _, err := svc.Validate(ctx, inv.Token); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("old token must stop working, got %v", err)
	}

	if _, err := svc.Cancel(ctx, admin, inv.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.Cancel(ctx, admin, inv.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on second cancel, got %v", err)
	}
	if _, _, err := svc.Accept(ctx, renewed.Token, AcceptInvitationInput{Password: "password1"}); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("cancelled invitation must not be accepted, got %v", err)
	}
	if _, err := svc.Resend(ctx, admin, inv.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("cancelled invitation cannot be resent, got %v", err)
	}
}

func TestInvitationQRCode(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newInvitationService(store, testNow)
	inv, _ := svc.Create(ctx, admin, CreateInvitationInput{Email: "qr@example.com"})
	png, err := svc.QRCode(ctx, inv.ID, 0)
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("expected a PNG image")
	}
}

func TestInvitationBulk(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newInvitationService(store, testNow)
	res := svc.Bulk(ctx, admin, []CreateInvitationInput{
		{Email: "one@example.com"},
		{Email: "not-an-email"},
		{Email: "one@example.com"},
		{Email: "two@example.com", Role: domain.RoleManager},
	})
	if len(res.Succeeded) != 2 || len(res.Failed) != 2 {
		t.Fatalf("expected 2/2, got %d/%d", len(res.Succeeded), len(res.Failed))
	}
	if res.Failed[0].Key != "not-an-email" || res.Failed[1].Key != "one@example.com" {
		t.Fatalf("unexpected failures %+v", res.Failed)
	}
	all, _ := svc.List(ctx)
	if len(all) != 2 {
		t.Fatalf("expected 2 invitations, got %d", len(all))
	}
}
