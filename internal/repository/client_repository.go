package repository

import (
	"context"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type ClientRepository struct {
	DB *db.Postgres
}

const clientColumns = `id, client_code, name, email, country, currency, created_at`

func (r ClientRepository) CreateClient(ctx context.Context, c domain.Client) (*domain.Client, error) {
	out, err := scanClient(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO clients (client_code, name, email, country, currency, created_at)
		VALUES ($1,$2,$3,$4,$5, now())
		RETURNING `+clientColumns, c.ClientCode, c.Name, c.Email, c.Country, c.Currency))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r ClientRepository) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	c, err := scanClient(r.DB.Pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r ClientRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY client_code`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanClient)
}

func (r ClientRepository) ClientCodesWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT client_code FROM clients WHERE upper(client_code) LIKE upper($1) || '%'`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func scanClient(row rowScanner) (*domain.Client, error) {
	var c domain.Client
	if err := row.Scan(&c.ID, &c.ClientCode, &c.Name, &c.Email, &c.Country, &c.Currency, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

type OrderRepository struct {
	DB *db.Postgres
}

const orderColumns = `id, client_id, title, total_price, order_date, status, created_at, updated_at`

func (r OrderRepository) CreateOrder(ctx context.Context, o domain.Order) (*domain.Order, error) {
	out, err := scanOrder(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO orders (client_id, title, total_price, order_date, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5, now(), now())
		RETURNING `+orderColumns, o.ClientID, o.Title, db.Numeric(o.TotalPrice), o.OrderDate, string(o.Status)))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, writeErr(err)
	}
	return out, nil
}

func (r OrderRepository) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	o, err := scanOrder(r.DB.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func (r OrderRepository) ListOrders(ctx context.Context, f ports.OrderFilter) ([]domain.Order, error) {
	var status *string
	if f.Status != "" {
		s := string(f.Status)
		status = &s
	}
	var from, to any
	if f.Month != nil {
		from, to = f.Month.FirstDay(), f.Month.NextFirstDay()
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1::bigint IS NULL OR client_id=$1)
		  AND ($2::text IS NULL OR status=$2)
		  AND ($3::date IS NULL OR order_date >= $3)
		  AND ($4::date IS NULL OR order_date < $4)
		ORDER BY order_date DESC, id DESC
	`, f.ClientID, status, from, to)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanOrder)
}

func (r OrderRepository) SetOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	o, err := scanOrder(r.DB.Pool.QueryRow(ctx, `
		UPDATE orders SET status=$2, updated_at=now() WHERE id=$1 RETURNING `+orderColumns, id, string(status)))
	if err != nil {
		return nil, notFound(err)
	}
	return o, nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(&o.ID, &o.ClientID, &o.Title, db.Dec(&o.TotalPrice), &o.OrderDate, (*string)(&o.Status), &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}
