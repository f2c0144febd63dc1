package service

import (
	"context"
	"testing"
	"time"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/repository/memstore"
)

func newAttendanceService(store *memstore.Store, now *time.Time) AttendanceService {
	return AttendanceService{
		Staff:      store,
		Shifts:     store,
		Attendance: store,
		Audit:      Auditor{Store: store, Logger: discardLogger()},
		Logger:     discardLogger(),
		Location:   time.UTC,
		LateAfter:  15 * time.Minute,
		Now:        func() time.Time { return *now },
	}
}

func TestCheckInLateThreshold(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		at   string
		want domain.AttendanceStatus
	}{
		{"09:10", domain.AttendancePresent},
		{"09:15", domain.AttendancePresent},
		{"09:16", domain.AttendanceLate},
	}
	for _, tc := range cases {
		store := memstore.New()
		now := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
		clock, _ := time.Parse("15:04", tc.at)
		now = now.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
		svc := newAttendanceService(store, &now)

		shift, err := svc.CreateShift(ctx, admin, CreateShiftInput{Name: "day", StartTime: "09:00", EndTime: "17:00", WeeklyOffDays: []int{5}})
		if err != nil {
			t.Fatalf("shift: %v", err)
		}
		st := seedStaff(t, store, "lee", "20000")
		st.ShiftID = &shift.ID
		if _, err := store.UpdateStaff(ctx, st); err != nil {
			t.Fatalf("assign: %v", err)
		}
		actor := Actor{UserID: 9, StaffID: &st.ID, Role: domain.RoleStaff}

		day, err := svc.CheckIn(ctx, actor)
		if err != nil {
			t.Fatalf("%s: check in: %v", tc.at, err)
		}
		if day.Status != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.at, tc.want, day.Status)
		}
	}
}

func TestCheckInCheckOut(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	now := time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)
	svc := newAttendanceService(store, &now)
	st := seedStaff(t, store, "mia", "20000")
	actor := Actor{UserID: 9, StaffID: &st.ID, Role: domain.RoleStaff}

	if _, err := svc.CheckOut(ctx, actor); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("check out before check in must fail, got %v", err)
	}
	if _, err := svc.CheckIn(ctx, actor); err != nil {
		t.Fatalf("check in: %v", err)
	}
	if _, err := svc.CheckIn(ctx, actor); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("double check in must fail, got %v", err)
	}
	now = now.Add(8*time.Hour + 30*time.Second)
	day, err := svc.CheckOut(ctx, actor)
	if err != nil {
		t.Fatalf("check out: %v", err)
	}
	if day.TotalMinutes != 480 {
		t.Fatalf("expected 480 minutes, got %d", day.TotalMinutes)
	}
	rows, err := svc.Month(ctx, &st.ID, "2025-03")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one row, got %d (%v)", len(rows), err)
	}
}

func TestMarkKeepsTimes(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	now := time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)
	svc := newAttendanceService(store, &now)
	st := seedStaff(t, store, "ned", "20000")
	actor := Actor{UserID: 9, StaffID: &st.ID, Role: domain.RoleStaff}
	if _, err := svc.CheckIn(ctx, actor); err != nil {
		t.Fatalf("check in: %v", err)
	}

	day, err := svc.Mark(ctx, admin, st.ID, "2025-03-20", domain.AttendanceLeave, "half day")
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	if day.Status != domain.AttendanceLeave || day.CheckIn == nil || day.Source != "manual" {
		t.Fatalf("unexpected row %+v", day)
	}
	if _, err := svc.Mark(ctx, admin, st.ID, "2025-03-20", "sick", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestShiftValidation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	now := testNow
	svc := newAttendanceService(store, &now)

	_, err := svc.CreateShift(ctx, admin, CreateShiftInput{StartTime: "25:00", EndTime: "17:00", WeeklyOffDays: []int{7}})
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindValidation || len(e.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}

	shift, err := svc.CreateShift(ctx, admin, CreateShiftInput{Name: "night", StartTime: "21:00", EndTime: "05:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.AddOffDate(ctx, admin, shift.ID, "2025-03-26", "independence day"); err != nil {
		t.Fatalf("off date: %v", err)
	}
	if _, err := svc.AddOffDate(ctx, admin, shift.ID, "2025-03-26", "again"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("duplicate off date must conflict, got %v", err)
	}
	if _, err := svc.AddOffDate(ctx, admin, 999, "2025-03-26", ""); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
