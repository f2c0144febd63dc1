package service

import (
	"context"
	"testing"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/repository/memstore"
)

func TestChangeSalaryRecordsHistory(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	st := seedStaff(t, store, "mina", "20000")
	svc := StaffService{Staff: store, Audit: Auditor{Store: store}, Logger: discardLogger()}

	updated, err := svc.ChangeSalary(ctx, admin, st.ID, dec(t, "25000"), "annual review")
	if err != nil {
		t.Fatalf("change salary: %v", err)
	}
	if !updated.Salary.Equal(dec(t, "25000")) {
		t.Fatalf("unexpected salary %s", updated.Salary)
	}
	history, _ := store.ListSalaryHistory(ctx, st.ID)
	if len(history) != 1 || !history[0].PreviousSalary.Equal(dec(t, "20000")) || history[0].Reason != "annual review" {
		t.Fatalf("unexpected history %+v", history)
	}
	if _, err := svc.ChangeSalary(ctx, admin, st.ID, dec(t, "25000"), ""); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("unchanged salary must be rejected, got %v", err)
	}
	if _, err := svc.ChangeSalary(ctx, admin, st.ID, dec(t, "0"), ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	logs, _, _ := store.ListAuditLogs(ctx, ports.AuditFilter{Entity: "staff"})
	if len(logs) != 1 || logs[0].Action != "staff.salary" {
		t.Fatalf("expected one salary audit entry, got %+v", logs)
	}
}

func TestStaffProfileAndStatus(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	st := seedStaff(t, store, "omar", "18000")
	svc := StaffService{Staff: store, Audit: Auditor{Store: store}, Logger: discardLogger()}

	dept, visible := "Support", true
	updated, err := svc.UpdateProfile(ctx, admin, st.ID, UpdateStaffInput{Department: &dept, SalaryVisible: &visible})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Department != "Support" || !updated.SalaryVisible || updated.Name != "omar" {
		t.Fatalf("unexpected profile %+v", updated)
	}
	blank := " "
	if _, err := svc.UpdateProfile(ctx, admin, st.ID, UpdateStaffInput{Name: &blank}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := svc.SetStatus(ctx, admin, st.ID, domain.StaffInactive); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := svc.SetStatus(ctx, admin, st.ID, "deleted"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	items, total, err := svc.List(ctx, ports.StaffFilter{Status: domain.StaffInactive})
	if err != nil || total != 1 || items[0].ID != st.ID {
		t.Fatalf("expected the inactive member, got %d (%v)", total, err)
	}
}

func TestMySalaryRequiresVisibilityAndPin(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	st := seedStaff(t, store, "lina", "22000")
	svc := StaffService{Staff: store, Audit: Auditor{Store: store}, Logger: discardLogger()}
	me := Actor{UserID: 9, StaffID: &st.ID, Role: domain.RoleStaff}

	if _, err := svc.MySalary(ctx, me, "1234"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("hidden salary must be forbidden, got %v", err)
	}
	visible := true
	if _, err := svc.UpdateProfile(ctx, admin, st.ID, UpdateStaffInput{SalaryVisible: &visible}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.MySalary(ctx, me, "1234"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("missing pin must be a conflict, got %v", err)
	}
	for _, pin := range []string{"12", "1234567", "12a4"} {
		if err := svc.SetSalaryPin(ctx, me, pin); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("pin %q must be rejected, got %v", pin, err)
		}
	}
	if err := svc.SetSalaryPin(ctx, me, "4321"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	if _, err := svc.MySalary(ctx, me, "0000"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("wrong pin must be forbidden, got %v", err)
	}
	view, err := svc.MySalary(ctx, me, "4321")
	if err != nil || !view.Salary.Equal(dec(t, "22000")) {
		t.Fatalf("expected salary view, got %+v (%v)", view, err)
	}
	if err := svc.SetSalaryPin(ctx, admin, "4321"); !apperr.Is(err, apperr.KindForbidden) {
		t.Fatalf("accounts without a staff profile have no pin, got %v", err)
	}
}
