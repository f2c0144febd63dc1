package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/repository/memstore"
)

type overtimeFixture struct {
	svc   OvertimeService
	store *memstore.Store
	now   time.Time
	staff Actor
}

func newOvertimeFixture(t *testing.T) *overtimeFixture {
	t.Helper()
	store := memstore.New()
	st := seedStaff(t, store, "kim", "20000")
	f := &overtimeFixture{store: store, now: time.Date(2025, time.March, 20, 17, 30, 0, 0, time.UTC)}
	f.staff = Actor{UserID: 50, StaffID: &st.ID, Role: domain.RoleStaff}
	f.svc = OvertimeService{
		Staff:    store,
		Overtime: store,
		Audit:    Auditor{Store: store, Logger: discardLogger()},
		Logger:   discardLogger(),
		Location: time.UTC,
		Now:      func() time.Time { return f.now },
	}
	return f
}

func (f *overtimeFixture) schedule(t *testing.T, startTime string, minutes int) *domain.Overtime {
	t.Helper()
	o, err := f.svc.Schedule(context.Background(), admin, ScheduleOvertimeInput{
		StaffID: *f.staff.StaffID, Date: "2025-03-20", StartTime: startTime, DurationMinutes: minutes, Reason: "release",
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	return o
}

func TestOvertimeStartTooEarly(t *testing.T) {
	f := newOvertimeFixture(t)
	o := f.schedule(t, "18:00", 120)
	if o.Status != domain.OvertimeApproved {
		t.Fatalf("admin scheduled overtime must be approved, got %s", o.Status)
	}

	_, err := f.svc.Start(context.Background(), f.staff)
	var early *TooEarlyError
	if !apperr.Is(err, apperr.KindConflict) || !errors.As(err, &early) {
		t.Fatalf("expected too early conflict, got %v", err)
	}
	if early.WaitMinutes != 30 {
		t.Fatalf("expected 30 minutes wait, got %d", early.WaitMinutes)
	}
	stored, _ := f.store.GetOvertime(context.Background(), o.ID)
	if stored.ActualStartTime != nil || stored.State() != domain.OvertimeScheduled {
		t.Fatalf("a rejected start must not touch the record: %+v", stored)
	}
}

func TestOvertimeStartNotScheduled(t *testing.T) {
	f := newOvertimeFixture(t)
	_, err := f.svc.Start(context.Background(), f.staff)
	if !apperr.Is(err, apperr.KindConflict) || !strings.Contains(err.Error(), "not scheduled") {
		t.Fatalf("expected not scheduled error, got %v", err)
	}

	// pending requests cannot be started
	if _, err := f.svc.Request(context.Background(), f.staff, ScheduleOvertimeInput{Date: "2025-03-20", StartTime: "17:00", DurationMinutes: 60}); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := f.svc.Start(context.Background(), f.staff); err == nil {
		t.Fatalf("pending overtime must not start")
	}
}

func TestOvertimeStartAndStop(t *testing.T) {
	ctx := context.Background()
	f := newOvertimeFixture(t)
	f.schedule(t, "18:00", 120)

	f.now = time.Date(2025, time.March, 20, 18, 0, 0, 0, time.UTC)
	started, err := f.svc.Start(ctx, f.staff)
	if err != nil {
		t.Fatalf("start exactly at the scheduled time: %v", err)
	}
	if started.ActualStartTime == nil || !started.ActualStartTime.Equal(f.now) || started.EndTime != nil {
		t.Fatalf("unexpected started record %+v", started)
	}
	if _, err := f.svc.Start(ctx, f.staff); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second start must fail, got %v", err)
	}
	active, err := f.svc.Active(ctx, f.staff)
	if err != nil || active == nil || active.ID != started.ID {
		t.Fatalf("expected active session, got %+v (%v)", active, err)
	}

	f.now = time.Date(2025, time.March, 20, 19, 29, 45, 0, time.UTC)
	stopped, err := f.svc.Stop(ctx, f.staff)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.DurationMinutes != 89 || stopped.EarlyStopMinutes != 31 {
		t.Fatalf("expected 89 minutes and 31 early, got %d/%d", stopped.DurationMinutes, stopped.EarlyStopMinutes)
	}
	if stopped.State() != domain.OvertimeCompleted {
		t.Fatalf("expected completed, got %s", stopped.State())
	}

	_, err = f.svc.Stop(ctx, f.staff)
	if !apperr.Is(err, apperr.KindConflict) || !strings.Contains(err.Error(), "no active overtime session") {
		t.Fatalf("expected no active session error, got %v", err)
	}
}

func TestOvertimeDuration(t *testing.T) {
	start := time.Date(2025, time.March, 20, 18, 0, 0, 0, time.UTC)
	cases := []struct {
		end       time.Time
		scheduled int
		minutes   int
		early     int
	}{
		{start.Add(59*time.Second + 999*time.Millisecond), 60, 0, 60},
		{start.Add(150 * time.Minute), 120, 150, 0},
		{start.Add(-time.Minute), 30, 0, 30},
	}
	for _, tc := range cases {
		m, e := overtimeDuration(start, tc.end, tc.scheduled)
		if m != tc.minutes || e != tc.early {
			t.Fatalf("end %s: expected %d/%d, got %d/%d", tc.end, tc.minutes, tc.early, m, e)
		}
	}
}

func TestOvertimeApproveReject(t *testing.T) {
	ctx := context.Background()
	f := newOvertimeFixture(t)
	req, err := f.svc.Request(ctx, f.staff, ScheduleOvertimeInput{Date: "2025-03-20", StartTime: "17:00", DurationMinutes: 60})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Status != domain.OvertimePending {
		t.Fatalf("staff requests must be pending, got %s", req.Status)
	}
	approved, err := f.svc.Approve(ctx, admin, req.ID)
	if err != nil || approved.Status != domain.OvertimeApproved {
		t.Fatalf("approve: %+v %v", approved, err)
	}
	if _, err := f.svc.Start(ctx, f.staff); err != nil {
		t.Fatalf("start approved overtime: %v", err)
	}
	if _, err := f.svc.Reject(ctx, admin, req.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("started overtime cannot be rejected, got %v", err)
	}
	if _, err := f.svc.Approve(ctx, admin, 999); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	items, err := f.svc.List(ctx, OvertimeQuery{StaffID: f.staff.StaffID, Month: "2025-03"})
	if err != nil || len(items) != 1 {
		t.Fatalf("expected 1 overtime row, got %d (%v)", len(items), err)
	}
}
