package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type AttendanceRepository struct {
	DB *db.Postgres
}

const attendanceColumns = `id, staff_id, date, status, check_in, check_out, total_minutes, note, source, created_at, updated_at`

func (r AttendanceRepository) GetAttendanceDay(ctx context.Context, staffID int64, date time.Time) (*domain.AttendanceDay, error) {
	a, err := scanAttendance(r.DB.Pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+` FROM attendance_days WHERE staff_id=$1 AND date=$2
	`, staffID, date))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r AttendanceRepository) UpsertAttendanceDay(ctx context.Context, a domain.AttendanceDay) (*domain.AttendanceDay, error) {
	out, err := scanAttendance(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO attendance_days (staff_id, date, status, check_in, check_out, total_minutes, note, source, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		ON CONFLICT (staff_id, date) DO UPDATE SET
			status=EXCLUDED.status,
			check_in=EXCLUDED.check_in,
			check_out=EXCLUDED.check_out,
			total_minutes=EXCLUDED.total_minutes,
			note=EXCLUDED.note,
			source=EXCLUDED.source,
			updated_at=now()
		RETURNING `+attendanceColumns,
		a.StaffID, a.Date, string(a.Status), a.CheckIn, a.CheckOut, a.TotalMinutes, a.Note, a.Source))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r AttendanceRepository) ListAttendance(ctx context.Context, staffIDs []int64, from, to time.Time) ([]domain.AttendanceDay, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance_days
		WHERE ($1::bigint[] IS NULL OR staff_id = ANY($1)) AND date >= $2 AND date < $3
		ORDER BY date ASC, staff_id ASC
	`, staffIDs, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAttendance)
}

func scanAttendance(row rowScanner) (*domain.AttendanceDay, error) {
	var a domain.AttendanceDay
	if err := row.Scan(&a.ID, &a.StaffID, &a.Date, (*string)(&a.Status), &a.CheckIn, &a.CheckOut,
		&a.TotalMinutes, &a.Note, &a.Source, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

type OvertimeRepository struct {
	DB *db.Postgres
}

const overtimeColumns = `id, staff_id, date, start_time, scheduled_minutes, actual_start_time, end_time, duration_minutes, early_stop_minutes, status, reason, created_by, approved_by, created_at, updated_at`

func (r OvertimeRepository) CreateOvertime(ctx context.Context, o domain.Overtime) (*domain.Overtime, error) {
	out, err := scanOvertime(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO overtimes (staff_id, date, start_time, scheduled_minutes, status, reason, created_by, approved_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8, now(), now())
		RETURNING `+overtimeColumns,
		o.StaffID, o.Date, o.StartTime, o.ScheduledMinutes, string(o.Status), o.Reason, o.CreatedBy, o.ApprovedBy))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r OvertimeRepository) GetOvertime(ctx context.Context, id int64) (*domain.Overtime, error) {
	o, err := scanOvertime(r.DB.Pool.QueryRow(ctx, `SELECT `+overtimeColumns+` FROM overtimes WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r OvertimeRepository) FindScheduledOvertime(ctx context.Context, staffID int64, date time.Time) (*domain.Overtime, error) {
	o, err := scanOvertime(r.DB.Pool.QueryRow(ctx, `
		SELECT `+overtimeColumns+` FROM overtimes
		WHERE staff_id=$1 AND date=$2 AND status='approved' AND actual_start_time IS NULL
		ORDER BY start_time ASC, id ASC
		LIMIT 1
	`, staffID, date))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r OvertimeRepository) FindActiveOvertime(ctx context.Context, staffID int64) (*domain.Overtime, error) {
	o, err := scanOvertime(r.DB.Pool.QueryRow(ctx, `
		SELECT `+overtimeColumns+` FROM overtimes
		WHERE staff_id=$1 AND actual_start_time IS NOT NULL AND end_time IS NULL
	`, staffID))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r OvertimeRepository) MarkOvertimeStarted(ctx context.Context, id int64, at time.Time) (*domain.Overtime, error) {
	o, err := scanOvertime(r.DB.Pool.QueryRow(ctx, `
		UPDATE overtimes SET actual_start_time=$2, updated_at=now()
		WHERE id=$1 AND actual_start_time IS NULL AND status='approved'
		RETURNING `+overtimeColumns, id, at))
	return conditional(o, err)
}

func (r OvertimeRepository) MarkOvertimeStopped(ctx context.Context, id int64, end time.Time, durationMinutes, earlyStopMinutes int) (*domain.Overtime, error) {
	o, err := scanOvertime(r.DB.Pool.QueryRow(ctx, `
		UPDATE overtimes SET end_time=$2, duration_minutes=$3, early_stop_minutes=$4, updated_at=now()
		WHERE id=$1 AND actual_start_time IS NOT NULL AND end_time IS NULL
		RETURNING `+overtimeColumns, id, end, durationMinutes, earlyStopMinutes))
	return conditional(o, err)
}

func (r OvertimeRepository) SetOvertimeStatus(ctx context.Context, id int64, status domain.OvertimeStatus, approver *int64) (*domain.Overtime, error) {
	o, err := scanOvertime(r.DB.Pool.QueryRow(ctx, `
		UPDATE overtimes SET status=$2, approved_by=$3, updated_at=now()
		WHERE id=$1 AND actual_start_time IS NULL
		RETURNING `+overtimeColumns, id, string(status), approver))
	return conditional(o, err)
}

func (r OvertimeRepository) ListOvertime(ctx context.Context, f ports.OvertimeFilter) ([]domain.Overtime, error) {
	var status *string
	if f.Status != "" {
		s := string(f.Status)
		status = &s
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+overtimeColumns+` FROM overtimes
		WHERE ($1::bigint IS NULL OR staff_id=$1)
		  AND ($2::text IS NULL OR status=$2)
		  AND ($3::date IS NULL OR date >= $3)
		  AND ($4::date IS NULL OR date < $4)
		ORDER BY date DESC, start_time DESC
	`, f.StaffID, status, f.From, f.To)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOvertime)
}

func scanOvertime(row rowScanner) (*domain.Overtime, error) {
	var o domain.Overtime
	if err := row.Scan(&o.ID, &o.StaffID, &o.Date, &o.StartTime, &o.ScheduledMinutes, &o.ActualStartTime, &o.EndTime,
		&o.DurationMinutes, &o.EarlyStopMinutes, (*string)(&o.Status), &o.Reason, &o.CreatedBy, &o.ApprovedBy,
		&o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// conditional maps the outcome of a guarded UPDATE ... RETURNING.
func conditional[T any](v *T, err error) (*T, error) {
	if err == nil {
		return v, nil
	}
	if err == pgx.ErrNoRows {
		return nil, ports.ErrStateChanged
	}
	return nil, writeErr(err)
}
