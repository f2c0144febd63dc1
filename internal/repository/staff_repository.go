package repository

import (
	"context"
	"strings"
	"time"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type StaffRepository struct {
	DB *db.Postgres
}

const staffColumns = `id, staff_code, user_id, name, email, phone, department, designation, salary, salary_visible, status, join_date, branch_id, shift_id, salary_pin_hash, created_at, updated_at`

func (r StaffRepository) ListStaff(ctx context.Context, f ports.StaffFilter) ([]domain.Staff, int, error) {
	where := []string{"TRUE"}
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(cond, "?", "$"+itoa(len(args))))
	}
	if f.BranchID != nil {
		add("branch_id = ?", *f.BranchID)
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Department != "" {
		add("department = ?", f.Department)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(name ILIKE ? OR staff_code ILIKE ? OR email ILIKE ?)", "%"+s+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limitArg(f.Page), f.Offset)
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+staffColumns+`
		FROM staff
		WHERE `+cond+`
		ORDER BY staff_code ASC
		LIMIT $`+itoa(len(args)-1)+` OFFSET $`+itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, scanStaff)
	return items, total, err
}

func (r StaffRepository) GetStaff(ctx context.Context, id int64) (*domain.Staff, error) {
	s, err := scanStaff(r.DB.Pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r StaffRepository) GetStaffByUserID(ctx context.Context, userID int64) (*domain.Staff, error) {
	s, err := scanStaff(r.DB.Pool.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff WHERE user_id=$1`, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r StaffRepository) UpdateStaff(ctx context.Context, s domain.Staff) (*domain.Staff, error) {
	out, err := scanStaff(r.DB.Pool.QueryRow(ctx, `
		UPDATE staff SET
			name=$2, email=$3, phone=$4, department=$5, designation=$6,
			salary_visible=$7, join_date=$8, branch_id=$9, shift_id=$10, updated_at=now()
		WHERE id=$1
		RETURNING `+staffColumns,
		s.ID, s.Name, s.Email, s.Phone, s.Department, s.Designation, s.SalaryVisible, s.JoinDate, s.BranchID, s.ShiftID))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r StaffRepository) ChangeSalary(ctx context.Context, h domain.SalaryHistory) (*domain.Staff, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO salary_history (staff_id, previous_salary, new_salary, reason, changed_by, changed_at)
		SELECT id, salary, $2, $3, $4, now() FROM staff WHERE id=$1
	`, h.StaffID, db.Numeric(h.NewSalary), h.Reason, h.ChangedBy); err != nil {
		return nil, err
	}
	s, err := scanStaff(tx.QueryRow(ctx, `
		UPDATE staff SET salary=$2, updated_at=now() WHERE id=$1 RETURNING `+staffColumns,
		h.StaffID, db.Numeric(h.NewSalary)))
	if err != nil {
		return nil, notFound(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r StaffRepository) SetStaffStatus(ctx context.Context, id int64, status domain.StaffStatus) error {
	return execOne(ctx, r.DB.Pool, `UPDATE staff SET status=$2, updated_at=now() WHERE id=$1`, id, string(status))
}

func (r StaffRepository) SetSalaryPin(ctx context.Context, id int64, hash string) error {
	return execOne(ctx, r.DB.Pool, `UPDATE staff SET salary_pin_hash=$2, updated_at=now() WHERE id=$1`, id, hash)
}

func (r StaffRepository) ListSalaryHistory(ctx context.Context, staffID int64) ([]domain.SalaryHistory, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, staff_id, previous_salary, new_salary, reason, changed_by, changed_at
		FROM salary_history WHERE staff_id=$1
		ORDER BY changed_at DESC, id DESC
	`, staffID)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row rowScanner) (*domain.SalaryHistory, error) {
		var h domain.SalaryHistory
		return &h, row.Scan(&h.ID, &h.StaffID, db.Dec(&h.PreviousSalary), db.Dec(&h.NewSalary), &h.Reason, &h.ChangedBy, &h.ChangedAt)
	})
}

func (r StaffRepository) CountStaffByStatus(ctx context.Context) (map[domain.StaffStatus]int, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT status, COUNT(*) FROM staff GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[domain.StaffStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.StaffStatus(status)] = n
	}
	return out, rows.Err()
}

func (r StaffRepository) ListShifts(ctx context.Context) ([]domain.Shift, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT id, name, start_time, end_time, weekly_off_days, created_at FROM shifts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanShift)
}

func (r StaffRepository) GetShift(ctx context.Context, id int64) (*domain.Shift, error) {
	s, err := scanShift(r.DB.Pool.QueryRow(ctx, `SELECT id, name, start_time, end_time, weekly_off_days, created_at FROM shifts WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r StaffRepository) CreateShift(ctx context.Context, s domain.Shift) (*domain.Shift, error) {
	days := make([]int16, 0, len(s.WeeklyOffDays))
	for _, d := range s.WeeklyOffDays {
		days = append(days, int16(d))
	}
	return scanShift(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO shifts (name, start_time, end_time, weekly_off_days, created_at)
		VALUES ($1,$2,$3,$4, now())
		RETURNING id, name, start_time, end_time, weekly_off_days, created_at
	`, s.Name, s.StartTime, s.EndTime, days))
}

func (r StaffRepository) AddShiftOffDate(ctx context.Context, d domain.ShiftOffDate) (*domain.ShiftOffDate, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO shift_off_dates (shift_id, date, reason) VALUES ($1,$2,$3)
		RETURNING id, shift_id, date, reason
	`, d.ShiftID, d.Date, d.Reason).Scan(&d.ID, &d.ShiftID, &d.Date, &d.Reason)
	if err != nil {
		return nil, writeErr(err)
	}
	return &d, nil
}

func (r StaffRepository) ListShiftOffDates(ctx context.Context, shiftIDs []int64, from, to time.Time) ([]domain.ShiftOffDate, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, shift_id, date, reason FROM shift_off_dates
		WHERE shift_id = ANY($1) AND date >= $2 AND date < $3
		ORDER BY date
	`, shiftIDs, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row rowScanner) (*domain.ShiftOffDate, error) {
		var d domain.ShiftOffDate
		return &d, row.Scan(&d.ID, &d.ShiftID, &d.Date, &d.Reason)
	})
}

func scanStaff(row rowScanner) (*domain.Staff, error) {
	var s domain.Staff
	if err := row.Scan(&s.ID, &s.StaffCode, &s.UserID, &s.Name, &s.Email, &s.Phone, &s.Department, &s.Designation,
		db.Dec(&s.Salary), &s.SalaryVisible, (*string)(&s.Status), &s.JoinDate, &s.BranchID, &s.ShiftID,
		&s.SalaryPinHash, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func scanShift(row rowScanner) (*domain.Shift, error) {
	var s domain.Shift
	var days []int16
	if err := row.Scan(&s.ID, &s.Name, &s.StartTime, &s.EndTime, &days, &s.CreatedAt); err != nil {
		return nil, err
	}
	for _, d := range days {
		s.WeeklyOffDays = append(s.WeeklyOffDays, time.Weekday(d))
	}
	return &s, nil
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, q pgxQuerier, sql string, args ...any) error {
	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return writeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
