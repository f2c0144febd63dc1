package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/metrics"
	"hrdesk-backend/internal/ports"
)

// TooEarlyError is wrapped by the conflict returned when a check-in precedes the scheduled start.
type TooEarlyError struct {
	StartTime   time.Time
	WaitMinutes int
}

func (e *TooEarlyError) Error() string {
	return fmt.Sprintf("too early: overtime starts in %d minutes", e.WaitMinutes)
}

type OvertimeService struct {
	Staff    ports.StaffStore
	Overtime ports.OvertimeStore
	Audit    Auditor
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

type ScheduleOvertimeInput struct {
	StaffID         int64
	Date            string
	StartTime       string // HH:MM
	DurationMinutes int
	Reason          string
}

func (s OvertimeService) parseInput(in ScheduleOvertimeInput) (time.Time, time.Time, error) {
	if in.StaffID <= 0 {
		return time.Time{}, time.Time{}, apperr.Field("staffId", "is required")
	}
	day, err := parseDate("date", in.Date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	clock, err := time.Parse("15:04", in.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Field("startTime", "must be formatted as HH:MM")
	}
	if in.DurationMinutes <= 0 {
		return time.Time{}, time.Time{}, apperr.Field("durationMinutes", "must be greater than 0")
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, locationOrUTC(s.Location))
	return day, start, nil
}

// Schedule creates an overtime slot; slots created by admins and managers are approved.
func (s OvertimeService) Schedule(ctx context.Context, actor Actor, in ScheduleOvertimeInput) (*domain.Overtime, error) {
	day, start, err := s.parseInput(in)
	if err != nil {
		return nil, err
	}
	if _, err := s.Staff.GetStaff(ctx, in.StaffID); err != nil {
		return nil, storeErr(err, "staff")
	}
	o := domain.Overtime{
		StaffID:          in.StaffID,
		Date:             day,
		StartTime:        start,
		ScheduledMinutes: in.DurationMinutes,
		Status:           domain.OvertimePending,
		Reason:           in.Reason,
		CreatedBy:        actor.ref(),
	}
	if actor.Role.Privileged() {
		o.Status = domain.OvertimeApproved
		o.ApprovedBy = actor.ref()
	}
	created, err := s.Overtime.CreateOvertime(ctx, o)
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	s.Audit.Record(ctx, actor, "overtime.schedule", "overtime", created.ID, "%s overtime on %s at %s for %d minutes",
		created.Status, in.Date, in.StartTime, in.DurationMinutes)
	return created, nil
}

// Request lets a staff member ask for overtime on their own profile; it starts pending.
func (s OvertimeService) Request(ctx context.Context, actor Actor, in ScheduleOvertimeInput) (*domain.Overtime, error) {
	staffID, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	in.StaffID = staffID
	requester := actor
	requester.Role = domain.RoleStaff
	return s.Schedule(ctx, requester, in)
}

// Start checks the actor in to today's approved overtime slot.
func (s OvertimeService) Start(ctx context.Context, actor Actor) (*domain.Overtime, error) {
	staffID, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	now := nowFrom(s.Now)
	today := domain.DateOf(now, locationOrUTC(s.Location))

	if _, err := s.Overtime.FindActiveOvertime(ctx, staffID); err == nil {
		return nil, apperr.Conflict("an overtime session is already active")
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, storeErr(err, "overtime")
	}

	scheduled, err := s.Overtime.FindScheduledOvertime(ctx, staffID, today)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperr.Conflict("overtime not scheduled for today")
	}
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	if now.Before(scheduled.StartTime) {
		wait := int(math.Ceil(scheduled.StartTime.Sub(now).Minutes()))
		tooEarly := &TooEarlyError{StartTime: scheduled.StartTime, WaitMinutes: wait}
		return nil, &apperr.Error{
			Kind:    apperr.KindConflict,
			Message: fmt.Sprintf("too early: overtime starts at %s, wait %d minutes", scheduled.StartTime.In(locationOrUTC(s.Location)).Format("15:04"), wait),
			Err:     tooEarly,
		}
	}

	started, err := s.Overtime.MarkOvertimeStarted(ctx, scheduled.ID, now)
	switch {
	case errors.Is(err, ports.ErrDuplicate):
		return nil, apperr.Conflict("an overtime session is already active")
	case errors.Is(err, ports.ErrStateChanged):
		return nil, apperr.Conflict("overtime was already started")
	case err != nil:
		return nil, storeErr(err, "overtime")
	}
	metrics.OvertimeEvents.WithLabelValues("start").Inc()
	loggerOrDefault(s.Logger).InfoContext(ctx, "overtime started", "overtime_id", started.ID, "staff_id", staffID)
	return started, nil
}

// Stop checks the actor out; the duration counts from the actual check-in.
func (s OvertimeService) Stop(ctx context.Context, actor Actor) (*domain.Overtime, error) {
	staffID, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	active, err := s.Overtime.FindActiveOvertime(ctx, staffID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, apperr.Conflict("no active overtime session")
	}
	if err != nil {
		return nil, storeErr(err, "overtime")
	}

	end := nowFrom(s.Now)
	duration, early := overtimeDuration(*active.ActualStartTime, end, active.ScheduledMinutes)
	stopped, err := s.Overtime.MarkOvertimeStopped(ctx, active.ID, end, duration, early)
	if errors.Is(err, ports.ErrStateChanged) {
		return nil, apperr.Conflict("no active overtime session")
	}
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	metrics.OvertimeEvents.WithLabelValues("stop").Inc()
	loggerOrDefault(s.Logger).InfoContext(ctx, "overtime stopped",
		"overtime_id", stopped.ID, "staff_id", staffID, "minutes", duration, "early_stop_minutes", early)
	return stopped, nil
}

// overtimeDuration returns whole elapsed minutes and the shortfall against the schedule.
func overtimeDuration(start, end time.Time, scheduledMinutes int) (int, int) {
	elapsed := end.Sub(start)
	if elapsed < 0 {
		elapsed = 0
	}
	minutes := int(elapsed / time.Minute)
	return minutes, max(0, scheduledMinutes-minutes)
}

func (s OvertimeService) Approve(ctx context.Context, actor Actor, id int64) (*domain.Overtime, error) {
	return s.setStatus(ctx, actor, id, domain.OvertimeApproved)
}

func (s OvertimeService) Reject(ctx context.Context, actor Actor, id int64) (*domain.Overtime, error) {
	o, err := s.setStatus(ctx, actor, id, domain.OvertimeRejected)
	if err == nil {
		metrics.OvertimeEvents.WithLabelValues("rejected").Inc()
	}
	return o, err
}

func (s OvertimeService) setStatus(ctx context.Context, actor Actor, id int64, status domain.OvertimeStatus) (*domain.Overtime, error) {
	if _, err := s.Overtime.GetOvertime(ctx, id); err != nil {
		return nil, storeErr(err, "overtime")
	}
	o, err := s.Overtime.SetOvertimeStatus(ctx, id, status, actor.ref())
	if errors.Is(err, ports.ErrStateChanged) {
		return nil, apperr.Conflict("overtime already started and can no longer be %s", status)
	}
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	s.Audit.Record(ctx, actor, "overtime."+string(status), "overtime", id, "overtime %s", status)
	return o, nil
}

type OvertimeQuery struct {
	StaffID *int64
	Status  domain.OvertimeStatus
	Month   string
}

func (s OvertimeService) List(ctx context.Context, q OvertimeQuery) ([]domain.Overtime, error) {
	f := ports.OvertimeFilter{StaffID: q.StaffID, Status: q.Status}
	if q.Month != "" {
		m, err := parseMonth(q.Month)
		if err != nil {
			return nil, err
		}
		from, to := m.FirstDay(), m.NextFirstDay()
		f.From, f.To = &from, &to
	}
	items, err := s.Overtime.ListOvertime(ctx, f)
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	return items, nil
}

// Active returns the actor's running session, or nil when none is active.
func (s OvertimeService) Active(ctx context.Context, actor Actor) (*domain.Overtime, error) {
	staffID, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	o, err := s.Overtime.FindActiveOvertime(ctx, staffID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	return o, nil
}
