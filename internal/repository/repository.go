package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/ports"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = ports.ErrNotFound

// pgxQuerier is satisfied by both pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

func nullableID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// notFound maps pgx.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// writeErr maps unique violations to ports.ErrDuplicate.
func writeErr(err error) error {
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ports.ErrDuplicate, err)
	}
	return notFound(err)
}

// limitArg turns a page limit into a LIMIT argument; NULL means no limit.
func limitArg(p ports.Page) *int {
	if p.Limit <= 0 {
		return nil
	}
	return &p.Limit
}

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, scan func(rowScanner) (*T, error)) ([]T, error) {
	defer rows.Close()
	var items []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
