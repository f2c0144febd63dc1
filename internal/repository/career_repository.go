package repository

import (
	"context"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
)

type CareerRepository struct {
	DB *db.Postgres
}

const positionColumns = `id, title, department, description, open, created_at`
const applicationColumns = `id, position_id, name, email, phone, resume_url, cover_note, status, created_at, updated_at`

func (r CareerRepository) CreatePosition(ctx context.Context, p domain.JobPosition) (*domain.JobPosition, error) {
	return scanPosition(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO job_positions (title, department, description, open, created_at)
		VALUES ($1,$2,$3,$4, now())
		RETURNING `+positionColumns, p.Title, p.Department, p.Description, p.Open))
}

func (r CareerRepository) GetPosition(ctx context.Context, id int64) (*domain.JobPosition, error) {
	p, err := scanPosition(r.DB.Pool.QueryRow(ctx, `SELECT `+positionColumns+` FROM job_positions WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r CareerRepository) ListPositions(ctx context.Context, openOnly bool) ([]domain.JobPosition, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+positionColumns+` FROM job_positions
		WHERE NOT $1 OR open
		ORDER BY created_at DESC
	`, openOnly)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanPosition)
}

func (r CareerRepository) SetPositionOpen(ctx context.Context, id int64, open bool) (*domain.JobPosition, error) {
	p, err := scanPosition(r.DB.Pool.QueryRow(ctx, `UPDATE job_positions SET open=$2 WHERE id=$1 RETURNING `+positionColumns, id, open))
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (r CareerRepository) CreateApplication(ctx context.Context, a domain.JobApplication) (*domain.JobApplication, error) {
	out, err := scanApplication(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO job_applications (position_id, name, email, phone, resume_url, cover_note, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7, now(), now())
		RETURNING `+applicationColumns,
		a.PositionID, a.Name, a.Email, a.Phone, a.ResumeURL, a.CoverNote, string(a.Status)))
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, writeErr(err)
	}
	return out, nil
}

func (r CareerRepository) ListApplications(ctx context.Context, positionID *int64) ([]domain.JobApplication, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT `+applicationColumns+` FROM job_applications
		WHERE ($1::bigint IS NULL OR position_id=$1)
		ORDER BY created_at DESC, id DESC
	`, positionID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanApplication)
}

func (r CareerRepository) SetApplicationStatus(ctx context.Context, id int64, status domain.ApplicationStatus) (*domain.JobApplication, error) {
	a, err := scanApplication(r.DB.Pool.QueryRow(ctx, `
		UPDATE job_applications SET status=$2, updated_at=now() WHERE id=$1 RETURNING `+applicationColumns, id, string(status)))
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func scanPosition(row rowScanner) (*domain.JobPosition, error) {
	var p domain.JobPosition
	if err := row.Scan(&p.ID, &p.Title, &p.Department, &p.Description, &p.Open, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanApplication(row rowScanner) (*domain.JobApplication, error) {
	var a domain.JobApplication
	if err := row.Scan(&a.ID, &a.PositionID, &a.Name, &a.Email, &a.Phone, &a.ResumeURL, &a.CoverNote, (*string)(&a.Status),
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
