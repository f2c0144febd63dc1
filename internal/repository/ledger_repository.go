package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type LedgerRepository struct {
	DB *db.Postgres
}

// LedgerTotals reads every ledger inside one read-only repeatable-read transaction
// so the sums describe a single snapshot.
func (r LedgerRepository) LedgerTotals(ctx context.Context, rg ports.LedgerRange) (domain.LedgerTotals, error) {
	var t domain.LedgerTotals
	tx, err := r.DB.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return t, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(amount_in_bdt),0) FROM earnings WHERE status='paid' AND paid_at >= $3 AND paid_at < $4),
			(SELECT COALESCE(SUM(amount),0) FROM expenses WHERE date >= $1 AND date < $2),
			(SELECT COALESCE(SUM(amount),0) FROM profit_transfers WHERE transfer_date >= $1 AND transfer_date < $2),
			(SELECT COALESCE(SUM(share_amount),0) FROM profit_distributions WHERE period_start >= $1 AND period_start < $2),
			(SELECT COALESCE(SUM(amount),0) FROM debits WHERE type='Borrow' AND date >= $1 AND date < $2),
			(SELECT COALESCE(SUM(amount),0) FROM debits WHERE type='Return' AND date >= $1 AND date < $2)
	`, rg.DateFrom, rg.DateTo, rg.From, rg.To).Scan(
		db.Dec(&t.Earnings), db.Dec(&t.Expenses), db.Dec(&t.Transfers),
		db.Dec(&t.Distributions), db.Dec(&t.Borrowed), db.Dec(&t.Returned),
	)
	if err != nil {
		return t, err
	}
	return t, tx.Commit(ctx)
}
