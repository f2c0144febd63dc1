package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type ExpenseRepository struct {
	DB *db.Postgres
}

const expenseColumns = `id, title, category, branch_id, amount, paid_amount, date, status, note, created_by, created_at`

func (r ExpenseRepository) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	out, err := scanExpense(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO expenses (title, category, branch_id, amount, paid_amount, date, status, note, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9, now())
		RETURNING `+expenseColumns,
		e.Title, e.Category, e.BranchID, db.Numeric(e.Amount), db.Numeric(e.PaidAmount), e.Date, string(e.Status), e.Note, e.CreatedBy))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r ExpenseRepository) GetExpense(ctx context.Context, id int64) (*domain.Expense, error) {
	e, err := scanExpense(r.DB.Pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r ExpenseRepository) ListExpenses(ctx context.Context, f ports.ExpenseFilter) ([]domain.Expense, int, error) {
	var category, status *string
	if f.Category != "" {
		category = &f.Category
	}
	if f.Status != "" {
		s := string(f.Status)
		status = &s
	}
	const where = `
		WHERE ($1::date IS NULL OR date >= $1)
		  AND ($2::date IS NULL OR date < $2)
		  AND ($3::bigint IS NULL OR branch_id=$3)
		  AND ($4::text IS NULL OR category=$4)
		  AND ($5::text IS NULL OR status=$5)`
	args := []any{f.From, f.To, f.BranchID, category, status}

	var total int
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+expenseColumns+` FROM expenses`+where+`
		ORDER BY date DESC, id DESC
		LIMIT $6 OFFSET $7`, append(args, limitArg(f.Page), f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, scanExpense)
	return items, total, err
}

func (r ExpenseRepository) UpdateExpensePayment(ctx context.Context, id int64, status domain.ExpenseStatus, paid decimal.Decimal) (*domain.Expense, error) {
	e, err := scanExpense(r.DB.Pool.QueryRow(ctx, `
		UPDATE expenses SET status=$2, paid_amount=$3 WHERE id=$1 RETURNING `+expenseColumns,
		id, string(status), db.Numeric(paid)))
	if err != nil {
		return nil, notFound(err)
	}
	return e, nil
}

func (r ExpenseRepository) DeleteExpense(ctx context.Context, id int64) error {
	return execOne(ctx, r.DB.Pool, `DELETE FROM expenses WHERE id=$1`, id)
}

func scanExpense(row rowScanner) (*domain.Expense, error) {
	var e domain.Expense
	if err := row.Scan(&e.ID, &e.Title, &e.Category, &e.BranchID, db.Dec(&e.Amount), db.Dec(&e.PaidAmount), &e.Date,
		(*string)(&e.Status), &e.Note, &e.CreatedBy, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

type DebitRepository struct {
	DB *db.Postgres
}

func (r DebitRepository) CreatePerson(ctx context.Context, p domain.Person) (*domain.Person, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO persons (name, phone, note, created_at) VALUES ($1,$2,$3, now())
		RETURNING id, name, phone, note, created_at
	`, p.Name, p.Phone, p.Note).Scan(&p.ID, &p.Name, &p.Phone, &p.Note, &p.CreatedAt)
	if err != nil {
		return nil, writeErr(err)
	}
	return &p, nil
}

func (r DebitRepository) GetPerson(ctx context.Context, id int64) (*domain.Person, error) {
	var p domain.Person
	err := r.DB.Pool.QueryRow(ctx, `SELECT id, name, phone, note, created_at FROM persons WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Phone, &p.Note, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r DebitRepository) ListPersons(ctx context.Context) ([]domain.Person, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT id, name, phone, note, created_at FROM persons ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row rowScanner) (*domain.Person, error) {
		var p domain.Person
		return &p, row.Scan(&p.ID, &p.Name, &p.Phone, &p.Note, &p.CreatedAt)
	})
}

func (r DebitRepository) CreateDebit(ctx context.Context, d domain.Debit) (*domain.Debit, error) {
	out, err := scanDebit(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO debits (person_id, type, amount, date, note, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
		RETURNING id, person_id, type, amount, date, note, created_by, created_at
	`, d.PersonID, string(d.Type), db.Numeric(d.Amount), d.Date, d.Note, d.CreatedBy))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, writeErr(err)
	}
	return out, nil
}

func (r DebitRepository) ListDebits(ctx context.Context, personID *int64) ([]domain.Debit, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, person_id, type, amount, date, note, created_by, created_at
		FROM debits WHERE ($1::bigint IS NULL OR person_id=$1)
		ORDER BY date DESC, id DESC
	`, personID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanDebit)
}

func (r DebitRepository) DeleteDebit(ctx context.Context, id int64) error {
	return execOne(ctx, r.DB.Pool, `DELETE FROM debits WHERE id=$1`, id)
}

func scanDebit(row rowScanner) (*domain.Debit, error) {
	var d domain.Debit
	if err := row.Scan(&d.ID, &d.PersonID, (*string)(&d.Type), db.Dec(&d.Amount), &d.Date, &d.Note, &d.CreatedBy, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
