package repository

import (
	"context"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
)

type UserRepository struct {
	DB *db.Postgres
}

const userColumns = `u.id, u.name, u.email, u.role, u.password_hash, u.firebase_uid, s.id, u.created_at, u.updated_at`

func (r UserRepository) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	return createUserWith(ctx, r.DB.Pool, u)
}

func createUserWith(ctx context.Context, q pgxQuerier, u domain.User) (*domain.User, error) {
	row := q.QueryRow(ctx, `
		WITH u AS (
			INSERT INTO users (name, email, role, password_hash, firebase_uid, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5, now(), now())
			RETURNING *
		)
		SELECT `+userColumns+`
		FROM u LEFT JOIN staff s ON s.user_id = u.id
	`, u.Name, u.Email, string(u.Role), u.PasswordHash, u.FirebaseUID)
	out, err := scanUser(row)
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r UserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, `u.id = $1`, id)
}

func (r UserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, `lower(u.email) = lower($1)`, email)
}

func (r UserRepository) GetUserByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.getUser(ctx, `u.firebase_uid = $1`, uid)
}

func (r UserRepository) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := r.DB.Pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u LEFT JOIN staff s ON s.user_id = u.id
		WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r UserRepository) LinkFirebaseUID(ctx context.Context, userID int64, uid string) error {
	tag, err := r.DB.Pool.Exec(ctx, `UPDATE users SET firebase_uid=$2, updated_at=now() WHERE id=$1`, userID, uid)
	if err != nil {
		return writeErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r UserRepository) CreateBranch(ctx context.Context, b domain.Branch) (*domain.Branch, error) {
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO branches (name, address, created_at) VALUES ($1,$2, now())
		RETURNING id, name, address, created_at
	`, b.Name, b.Address).Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt)
	if err != nil {
		return nil, writeErr(err)
	}
	return &b, nil
}

func (r UserRepository) ListBranches(ctx context.Context) ([]domain.Branch, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT id, name, address, created_at FROM branches ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(row rowScanner) (*domain.Branch, error) {
		var b domain.Branch
		return &b, row.Scan(&b.ID, &b.Name, &b.Address, &b.CreatedAt)
	})
}

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		(*string)(&u.Role),
		&u.PasswordHash,
		&u.FirebaseUID,
		&u.StaffID,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &u, nil
}
