package repository

import (
	"context"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type AuditRepository struct {
	DB *db.Postgres
}

func (r AuditRepository) CreateAuditLog(ctx context.Context, l domain.AuditLog) error {
	_, err := r.DB.Pool.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, actor, action, entity, entity_id, message, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, COALESCE($7, now()))
	`, l.ActorID, l.Actor, l.Action, l.Entity, l.EntityID, l.Message, nullableTime(l.CreatedAt))
	return err
}

func (r AuditRepository) ListAuditLogs(ctx context.Context, f ports.AuditFilter) ([]domain.AuditLog, int, error) {
	var entity, entityID *string
	if f.Entity != "" {
		entity = &f.Entity
	}
	if f.EntityID != "" {
		entityID = &f.EntityID
	}
	const where = `
		WHERE ($1::text IS NULL OR entity=$1)
		  AND ($2::text IS NULL OR entity_id=$2)
		  AND ($3::bigint IS NULL OR actor_id=$3)`
	args := []any{entity, entityID, f.ActorID}

	var total int
	if err := r.DB.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, actor_id, actor, action, entity, entity_id, message, created_at
		FROM audit_logs`+where+`
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`, append(args, limitArg(f.Page), f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, func(row rowScanner) (*domain.AuditLog, error) {
		var l domain.AuditLog
		return &l, row.Scan(&l.ID, &l.ActorID, &l.Actor, &l.Action, &l.Entity, &l.EntityID, &l.Message, &l.CreatedAt)
	})
	return items, total, err
}
