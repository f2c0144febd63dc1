package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type EarningRepository struct {
	DB *db.Postgres
}

const earningSelect = `
	SELECT e.id, e.order_id, e.client_id, c.name, e.month, e.gross_amount, e.fees, e.tax, e.conversion_rate,
		e.net_amount, e.amount_in_bdt, e.status, e.paid_at, e.paid_by, e.notes, e.is_legacy, e.created_at, e.updated_at
	FROM earnings e JOIN clients c ON c.id = e.client_id`

func (r EarningRepository) CreateEarning(ctx context.Context, e domain.Earning) (*domain.Earning, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO earnings (order_id, client_id, month, gross_amount, fees, tax, conversion_rate, net_amount, amount_in_bdt,
			status, paid_at, paid_by, notes, is_legacy, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, now(), now())
		RETURNING id
	`, e.OrderID, e.ClientID, e.Month, db.Numeric(e.GrossAmount), db.Numeric(e.Fees), db.Numeric(e.Tax),
		db.Numeric(e.ConversionRate), db.Numeric(e.NetAmount), db.Numeric(e.AmountInBDT), string(e.Status),
		e.PaidAt, e.PaidBy, e.Notes, e.IsLegacy).Scan(&id)
	if err != nil {
		return nil, writeErr(err)
	}
	return r.GetEarning(ctx, id)
}

func (r EarningRepository) GetEarning(ctx context.Context, id int64) (*domain.Earning, error) {
	e, err := scanEarning(r.DB.Pool.QueryRow(ctx, earningSelect+` WHERE e.id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r EarningRepository) GetEarningByOrder(ctx context.Context, orderID int64) (*domain.Earning, error) {
	e, err := scanEarning(r.DB.Pool.QueryRow(ctx, earningSelect+` WHERE e.order_id=$1`, orderID))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r EarningRepository) ListEarnings(ctx context.Context, f ports.EarningFilter) ([]domain.Earning, int, error) {
	var status, month *string
	if f.Status != "" {
		s := string(f.Status)
		status = &s
	}
	if f.Month != "" {
		month = &f.Month
	}
	const where = `
		WHERE ($1::text IS NULL OR e.status=$1)
		  AND ($2::bigint IS NULL OR e.client_id=$2)
		  AND ($3::text IS NULL OR e.month=$3)
		  AND ($4::timestamptz IS NULL OR e.paid_at >= $4)
		  AND ($5::timestamptz IS NULL OR e.paid_at < $5)`
	args := []any{status, f.ClientID, month, f.PaidFrom, f.PaidTo}

	var total int
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM earnings e`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.Pool.Query(ctx, earningSelect+where+`
		ORDER BY e.month DESC, e.id DESC
		LIMIT $6 OFFSET $7`, append(args, limitArg(f.Page), f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, scanEarning)
	return items, total, err
}

func (r EarningRepository) MarkEarningPaid(ctx context.Context, e domain.Earning) (*domain.Earning, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE earnings SET
			fees=$2, tax=$3, conversion_rate=$4, net_amount=$5, amount_in_bdt=$6,
			status='paid', paid_at=$7, paid_by=$8, notes=$9, updated_at=now()
		WHERE id=$1 AND status='unpaid'
		RETURNING id
	`, e.ID, db.Numeric(e.Fees), db.Numeric(e.Tax), db.Numeric(e.ConversionRate), db.Numeric(e.NetAmount),
		db.Numeric(e.AmountInBDT), e.PaidAt, e.PaidBy, e.Notes).Scan(&id)
	if _, err := conditional(&id, err); err != nil {
		return nil, err
	}
	return r.GetEarning(ctx, id)
}

func (r EarningRepository) MarkEarningUnpaid(ctx context.Context, id int64) (*domain.Earning, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		UPDATE earnings SET
			status='unpaid', paid_at=NULL, paid_by=NULL, conversion_rate=0, amount_in_bdt=0,
			fees=0, tax=0, net_amount=gross_amount, updated_at=now()
		WHERE id=$1 AND status='paid'
		RETURNING id
	`, id).Scan(&id)
	if _, err := conditional(&id, err); err != nil {
		return nil, err
	}
	return r.GetEarning(ctx, id)
}

func (r EarningRepository) UpdateEarningGross(ctx context.Context, id int64, gross decimal.Decimal) error {
	return execOne(ctx, r.DB.Pool, `
		UPDATE earnings SET gross_amount=$2, net_amount=$2, updated_at=now()
		WHERE id=$1 AND status='unpaid'
	`, id, db.Numeric(gross))
}

func (r EarningRepository) SetEarningLegacy(ctx context.Context, id int64, legacy bool) error {
	return execOne(ctx, r.DB.Pool, `UPDATE earnings SET is_legacy=$2, updated_at=now() WHERE id=$1`, id, legacy)
}

func (r EarningRepository) DeleteEarning(ctx context.Context, id int64) error {
	return execOne(ctx, r.DB.Pool, `DELETE FROM earnings WHERE id=$1 AND status='unpaid'`, id)
}

func scanEarning(row rowScanner) (*domain.Earning, error) {
	var e domain.Earning
	if err := row.Scan(&e.ID, &e.OrderID, &e.ClientID, &e.ClientName, &e.Month, db.Dec(&e.GrossAmount), db.Dec(&e.Fees),
		db.Dec(&e.Tax), db.Dec(&e.ConversionRate), db.Dec(&e.NetAmount), db.Dec(&e.AmountInBDT), (*string)(&e.Status),
		&e.PaidAt, &e.PaidBy, &e.Notes, &e.IsLegacy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
