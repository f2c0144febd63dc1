package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type AttendanceService struct {
	Staff      ports.StaffStore
	Shifts     ports.ShiftStore
	Attendance ports.AttendanceStore
	Audit      Auditor
	Logger     *slog.Logger
	Location   *time.Location
	LateAfter  time.Duration
	Now        func() time.Time
}

// CheckIn opens today's attendance row; arriving after shift start plus the late threshold marks it late.
func (s AttendanceService) CheckIn(ctx context.Context, actor Actor) (*domain.AttendanceDay, error) {
	staffID, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	st, err := s.Staff.GetStaff(ctx, staffID)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	loc := locationOrUTC(s.Location)
	now := nowFrom(s.Now)
	today := domain.DateOf(now, loc)

	day := domain.AttendanceDay{StaffID: staffID, Date: today}
	existing, err := s.Attendance.GetAttendanceDay(ctx, staffID, today)
	switch {
	case err == nil:
		if existing.CheckIn != nil {
			return nil, apperr.Conflict("already checked in today")
		}
		day = *existing
	case !errors.Is(err, ports.ErrNotFound):
		return nil, storeErr(err, "attendance")
	}

	day.Status = domain.AttendancePresent
	if st.ShiftID != nil {
		shift, err := s.Shifts.GetShift(ctx, *st.ShiftID)
		if err != nil && !errors.Is(err, ports.ErrNotFound) {
			return nil, storeErr(err, "shift")
		}
		if shift != nil {
			if start, ok := shiftStart(today, shift.StartTime, loc); ok && now.After(start.Add(s.LateAfter)) {
				day.Status = domain.AttendanceLate
			}
		}
	}
	day.CheckIn = &now
	day.Source = "self"

	saved, err := s.Attendance.UpsertAttendanceDay(ctx, day)
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	return saved, nil
}

func shiftStart(day time.Time, hhmm string, loc *time.Location) (time.Time, bool) {
	clock, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true
}

func (s AttendanceService) CheckOut(ctx context.Context, actor Actor) (*domain.AttendanceDay, error) {
	staffID, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	now := nowFrom(s.Now)
	today := domain.DateOf(now, locationOrUTC(s.Location))
	day, err := s.Attendance.GetAttendanceDay(ctx, staffID, today)
	if errors.Is(err, ports.ErrNotFound) || (err == nil && day.CheckIn == nil) {
		return nil, apperr.Conflict("no check-in recorded today")
	}
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	if day.CheckOut != nil {
		return nil, apperr.Conflict("already checked out today")
	}
	day.CheckOut = &now
	day.TotalMinutes = int(now.Sub(*day.CheckIn) / time.Minute)
	saved, err := s.Attendance.UpsertAttendanceDay(ctx, *day)
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	return saved, nil
}

// Month lists the attendance rows of one staff member, or of everyone when staffID is nil.
func (s AttendanceService) Month(ctx context.Context, staffID *int64, month string) ([]domain.AttendanceDay, error) {
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	var ids []int64
	if staffID != nil {
		ids = []int64{*staffID}
	}
	rows, err := s.Attendance.ListAttendance(ctx, ids, m.FirstDay(), m.NextFirstDay())
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	if rows == nil {
		rows = []domain.AttendanceDay{}
	}
	return rows, nil
}

// Mark overrides one day's status; check-in and check-out times are kept.
func (s AttendanceService) Mark(ctx context.Context, actor Actor, staffID int64, date string, status domain.AttendanceStatus, note string) (*domain.AttendanceDay, error) {
	if staffID <= 0 {
		return nil, apperr.Field("staffId", "is required")
	}
	d, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperr.Field("status", "must be one of present, absent, late, leave, grace")
	}
	if _, err := s.Staff.GetStaff(ctx, staffID); err != nil {
		return nil, storeErr(err, "staff")
	}
	day := domain.AttendanceDay{StaffID: staffID, Date: d}
	if existing, err := s.Attendance.GetAttendanceDay(ctx, staffID, d); err == nil {
		day = *existing
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, storeErr(err, "attendance")
	}
	day.Status = status
	day.Note = note
	day.Source = "manual"
	saved, err := s.Attendance.UpsertAttendanceDay(ctx, day)
	if err != nil {
		return nil, storeErr(err, "attendance")
	}
	s.Audit.Record(ctx, actor, "attendance.mark", "staff", staffID, "%s marked %s", date, status)
	return saved, nil
}

func (s AttendanceService) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	shifts, err := s.Shifts.ListShifts(ctx)
	if err != nil {
		return nil, storeErr(err, "shift")
	}
	return shifts, nil
}

type CreateShiftInput struct {
	Name          string
	StartTime     string
	EndTime       string
	WeeklyOffDays []int
}

func (s AttendanceService) CreateShift(ctx context.Context, actor Actor, in CreateShiftInput) (*domain.Shift, error) {
	fields := map[string]string{}
	if in.Name == "" {
		fields["name"] = "is required"
	}
	if _, err := time.Parse("15:04", in.StartTime); err != nil {
		fields["startTime"] = "must be formatted as HH:MM"
	}
	if _, err := time.Parse("15:04", in.EndTime); err != nil {
		fields["endTime"] = "must be formatted as HH:MM"
	}
	days := make([]time.Weekday, 0, len(in.WeeklyOffDays))
	for _, d := range in.WeeklyOffDays {
		if d < 0 || d > 6 {
			fields["weeklyOffDays"] = "must contain weekday numbers 0 (Sunday) to 6 (Saturday)"
			break
		}
		days = append(days, time.Weekday(d))
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid shift", fields)
	}
	shift, err := s.Shifts.CreateShift(ctx, domain.Shift{Name: in.Name, StartTime: in.StartTime, EndTime: in.EndTime, WeeklyOffDays: days})
	if err != nil {
		return nil, storeErr(err, "shift")
	}
	s.Audit.Record(ctx, actor, "shift.create", "shift", shift.ID, "shift %s created", shift.Name)
	return shift, nil
}

func (s AttendanceService) AddOffDate(ctx context.Context, actor Actor, shiftID int64, date, reason string) (*domain.ShiftOffDate, error) {
	d, err := parseDate("date", date)
	if err != nil {
		return nil, err
	}
	if _, err := s.Shifts.GetShift(ctx, shiftID); err != nil {
		return nil, storeErr(err, "shift")
	}
	off, err := s.Shifts.AddShiftOffDate(ctx, domain.ShiftOffDate{ShiftID: shiftID, Date: d, Reason: reason})
	if errors.Is(err, ports.ErrDuplicate) {
		return nil, apperr.Conflict("%s is already an off date of this shift", date)
	}
	if err != nil {
		return nil, storeErr(err, "shift off date")
	}
	s.Audit.Record(ctx, actor, "shift.off_date", "shift", shiftID, "off date %s added", date)
	return off, nil
}
