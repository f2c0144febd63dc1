package repository

import (
	"context"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type ShareholderRepository struct {
	DB *db.Postgres
}

const shareholderColumns = `id, name, email, percentage, active, created_at, updated_at`

func (r ShareholderRepository) CreateShareholder(ctx context.Context, s domain.Shareholder) (*domain.Shareholder, error) {
	out, err := scanShareholder(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO shareholders (name, email, percentage, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4, now(), now())
		RETURNING `+shareholderColumns, s.Name, s.Email, db.Numeric(s.Percentage), s.Active))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r ShareholderRepository) UpdateShareholder(ctx context.Context, s domain.Shareholder) (*domain.Shareholder, error) {
	out, err := scanShareholder(r.DB.Pool.QueryRow(ctx, `
		UPDATE shareholders SET name=$2, email=$3, percentage=$4, active=$5, updated_at=now()
		WHERE id=$1
		RETURNING `+shareholderColumns, s.ID, s.Name, s.Email, db.Numeric(s.Percentage), s.Active))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r ShareholderRepository) GetShareholder(ctx context.Context, id int64) (*domain.Shareholder, error) {
	s, err := scanShareholder(r.DB.Pool.QueryRow(ctx, `SELECT `+shareholderColumns+` FROM shareholders WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

func (r ShareholderRepository) ListShareholders(ctx context.Context, activeOnly bool) ([]domain.Shareholder, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+shareholderColumns+` FROM shareholders
		WHERE NOT $1 OR active
		ORDER BY percentage DESC, id ASC
	`, activeOnly)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanShareholder)
}

func (r ShareholderRepository) CreateDistributions(ctx context.Context, items []domain.ProfitDistribution) ([]domain.ProfitDistribution, error) {
	if len(items) == 0 {
		return nil, nil
	}
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	period := items[0].Period
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profit_distributions WHERE period_key=$1)`, period.String()).Scan(&exists); err != nil {
		return nil, err
	}
	if exists {
		return nil, ports.ErrDuplicate
	}
	start, _ := period.DateRange()
	out := make([]domain.ProfitDistribution, 0, len(items))
	for _, d := range items {
		err := tx.QueryRow(ctx, `
			INSERT INTO profit_distributions (shareholder_id, period_type, period_key, period_start, net_profit, percentage, share_amount, distributed_at, distributed_by)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING id
		`, d.ShareholderID, string(period.Type), period.String(), start, db.Numeric(d.NetProfit), db.Numeric(d.Percentage),
			db.Numeric(d.ShareAmount), d.DistributedAt, d.DistributedBy).Scan(&d.ID)
		if err != nil {
			return nil, writeErr(err)
		}
		out = append(out, d)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r ShareholderRepository) ListDistributions(ctx context.Context, period *domain.Period) ([]domain.ProfitDistribution, error) {
	var key *string
	if period != nil {
		k := period.String()
		key = &k
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT d.id, d.shareholder_id, s.name, d.period_type, d.period_key, d.net_profit, d.percentage, d.share_amount, d.distributed_at, d.distributed_by
		FROM profit_distributions d JOIN shareholders s ON s.id = d.shareholder_id
		WHERE ($1::text IS NULL OR d.period_key=$1)
		ORDER BY d.period_start DESC, d.share_amount DESC
	`, key)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row rowScanner) (*domain.ProfitDistribution, error) {
		var d domain.ProfitDistribution
		var typ, periodKey string
		if err := row.Scan(&d.ID, &d.ShareholderID, &d.Shareholder, &typ, &periodKey, db.Dec(&d.NetProfit), db.Dec(&d.Percentage),
			db.Dec(&d.ShareAmount), &d.DistributedAt, &d.DistributedBy); err != nil {
			return nil, err
		}
		p, err := domain.ParsePeriod(domain.PeriodType(typ), periodKey)
		if err != nil {
			return nil, err
		}
		d.Period = p
		return &d, nil
	})
}

func scanShareholder(row rowScanner) (*domain.Shareholder, error) {
	var s domain.Shareholder
	if err := row.Scan(&s.ID, &s.Name, &s.Email, db.Dec(&s.Percentage), &s.Active, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

type TransferRepository struct {
	DB *db.Postgres
}

func (r TransferRepository) CreateBusiness(ctx context.Context, b domain.ExternalBusiness) (*domain.ExternalBusiness, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO external_businesses (name, contact, note, created_at) VALUES ($1,$2,$3, now())
		RETURNING id, name, contact, note, created_at
	`, b.Name, b.Contact, b.Note).Scan(&b.ID, &b.Name, &b.Contact, &b.Note, &b.CreatedAt)
	if err != nil {
		return nil, writeErr(err)
	}
	return &b, nil
}

func (r TransferRepository) GetBusiness(ctx context.Context, id int64) (*domain.ExternalBusiness, error) {
	var b domain.ExternalBusiness
	err := r.DB.Pool.QueryRow(ctx, `SELECT id, name, contact, note, created_at FROM external_businesses WHERE id=$1`, id).
		Scan(&b.ID, &b.Name, &b.Contact, &b.Note, &b.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

func (r TransferRepository) ListBusinesses(ctx context.Context) ([]domain.ExternalBusiness, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT id, name, contact, note, created_at FROM external_businesses ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row rowScanner) (*domain.ExternalBusiness, error) {
		var b domain.ExternalBusiness
		return &b, row.Scan(&b.ID, &b.Name, &b.Contact, &b.Note, &b.CreatedAt)
	})
}

const transferSelect = `
	SELECT t.id, t.business_id, b.name, t.period_type, t.period_key, t.amount, t.transfer_date, t.note, t.created_by, t.created_at
	FROM profit_transfers t JOIN external_businesses b ON b.id = t.business_id`

func (r TransferRepository) CreateTransfer(ctx context.Context, t domain.ProfitTransfer) (*domain.ProfitTransfer, error) {
	var id int64
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO profit_transfers (business_id, period_type, period_key, amount, transfer_date, note, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now())
		RETURNING id
	`, t.BusinessID, string(t.Period.Type), t.Period.String(), db.Numeric(t.Amount), t.TransferDate, t.Note, t.CreatedBy).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, writeErr(err)
	}
	out, err := scanTransfer(r.DB.Pool.QueryRow(ctx, transferSelect+` WHERE t.id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return out, nil
}

func (r TransferRepository) ListTransfers(ctx context.Context, businessID *int64, period *domain.Period) ([]domain.ProfitTransfer, error) {
	var from, to any
	if period != nil {
		from, to = period.DateRange()
	}
	rows, err := r.DB.Pool.Query(ctx, transferSelect+`
		WHERE ($1::bigint IS NULL OR t.business_id=$1)
		  AND ($2::date IS NULL OR t.transfer_date >= $2)
		  AND ($3::date IS NULL OR t.transfer_date < $3)
		ORDER BY t.transfer_date DESC, t.id DESC
	`, businessID, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanTransfer)
}

func scanTransfer(row rowScanner) (*domain.ProfitTransfer, error) {
	var t domain.ProfitTransfer
	var typ, key string
	if err := row.Scan(&t.ID, &t.BusinessID, &t.BusinessName, &typ, &key, db.Dec(&t.Amount), &t.TransferDate, &t.Note, &t.CreatedBy, &t.CreatedAt); err != nil {
		return nil, err
	}
	p, err := domain.ParsePeriod(domain.PeriodType(typ), key)
	if err != nil {
		return nil, err
	}
	t.Period = p
	return &t, nil
}
