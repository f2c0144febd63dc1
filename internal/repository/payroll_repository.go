package repository

import (
	"context"
	"time"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
)

type PayrollRepository struct {
	DB *db.Postgres
}

const paymentColumns = `id, staff_id, month, payment_type, amount, bonus, deduction, payment_method, note, paid_at, paid_by, reversed_at, reversed_by`

func (r PayrollRepository) CreatePayment(ctx context.Context, p domain.PayrollPayment) (*domain.PayrollPayment, error) {
	out, err := scanPayment(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO payroll_payments (staff_id, month, payment_type, amount, bonus, deduction, payment_method, note, paid_at, paid_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+paymentColumns,
		p.StaffID, p.Month.String(), string(p.PaymentType), db.Numeric(p.Amount), db.Numeric(p.Bonus), db.Numeric(p.Deduction),
		p.PaymentMethod, p.Note, p.PaidAt, p.PaidBy))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r PayrollRepository) GetActivePayment(ctx context.Context, staffID int64, month domain.Month, paymentType domain.PaymentType) (*domain.PayrollPayment, error) {
	p, err := scanPayment(r.DB.Pool.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payroll_payments
		WHERE staff_id=$1 AND month=$2 AND payment_type=$3 AND reversed_at IS NULL
	`, staffID, month.String(), string(paymentType)))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r PayrollRepository) ReversePayment(ctx context.Context, id int64, by *int64, at time.Time) error {
	return execOne(ctx, r.DB.Pool, `
		UPDATE payroll_payments SET reversed_at=$2, reversed_by=$3
		WHERE id=$1 AND reversed_at IS NULL
	`, id, at, by)
}

func (r PayrollRepository) ListPayments(ctx context.Context, month domain.Month, includeReversed bool) ([]domain.PayrollPayment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM payroll_payments
		WHERE month=$1 AND ($2 OR reversed_at IS NULL)
		ORDER BY paid_at ASC, id ASC
	`, month.String(), includeReversed)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPayment)
}

func (r PayrollRepository) UpsertAdjustment(ctx context.Context, a domain.PayrollAdjustment) (*domain.PayrollAdjustment, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO payroll_adjustments (staff_id, month, bonus, deduction, note, updated_by, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		ON CONFLICT (staff_id, month) DO UPDATE SET
			bonus=EXCLUDED.bonus,
			deduction=EXCLUDED.deduction,
			note=EXCLUDED.note,
			updated_by=EXCLUDED.updated_by,
			updated_at=now()
		RETURNING staff_id, month, bonus, deduction, note, updated_by, updated_at
	`, a.StaffID, a.Month.String(), db.Numeric(a.Bonus), db.Numeric(a.Deduction), a.Note, a.UpdatedBy)
	out, err := scanAdjustment(row)
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r PayrollRepository) ListAdjustments(ctx context.Context, month domain.Month) ([]domain.PayrollAdjustment, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT staff_id, month, bonus, deduction, note, updated_by, updated_at
		FROM payroll_adjustments WHERE month=$1
	`, month.String())
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAdjustment)
}

func scanPayment(row rowScanner) (*domain.PayrollPayment, error) {
	var p domain.PayrollPayment
	var month string
	if err := row.Scan(&p.ID, &p.StaffID, &month, (*string)(&p.PaymentType), db.Dec(&p.Amount), db.Dec(&p.Bonus),
		db.Dec(&p.Deduction), &p.PaymentMethod, &p.Note, &p.PaidAt, &p.PaidBy, &p.ReversedAt, &p.ReversedBy); err != nil {
		return nil, err
	}
	m, err := domain.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	p.Month = m
	return &p, nil
}

func scanAdjustment(row rowScanner) (*domain.PayrollAdjustment, error) {
	var a domain.PayrollAdjustment
	var month string
	if err := row.Scan(&a.StaffID, &month, db.Dec(&a.Bonus), db.Dec(&a.Deduction), &a.Note, &a.UpdatedBy, &a.UpdatedAt); err != nil {
		return nil, err
	}
	m, err := domain.ParseMonth(month)
	if err != nil {
		return nil, err
	}
	a.Month = m
	return &a, nil
}
