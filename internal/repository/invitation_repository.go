package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"hrdesk-backend/internal/db"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type InvitationRepository struct {
	DB *db.Postgres
}

const invitationColumns = `id, email, name, role, department, designation, salary, branch_id, token, expires_at, is_used, used_at, cancelled_at, invited_by, created_at`

func (r InvitationRepository) CreateInvitation(ctx context.Context, inv domain.Invitation) (*domain.Invitation, error) {
	out, err := scanInvitation(r.DB.Pool.QueryRow(ctx, `
		INSERT INTO invitations (email, name, role, department, designation, salary, branch_id, token, expires_at, invited_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, now())
		RETURNING `+invitationColumns,
		inv.Email, inv.Name, string(inv.Role), inv.Department, inv.Designation, db.Numeric(inv.Salary), inv.BranchID,
		inv.Token, inv.ExpiresAt, inv.InvitedBy))
	if err != nil {
		return nil, writeErr(err)
	}
	return out, nil
}

func (r InvitationRepository) GetInvitation(ctx context.Context, id int64) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.Pool.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

func (r InvitationRepository) GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.Pool.QueryRow(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE token=$1`, token))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

func (r InvitationRepository) FindActiveInvitationByEmail(ctx context.Context, email string, now time.Time) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.Pool.QueryRow(ctx, `
		SELECT `+invitationColumns+` FROM invitations
		WHERE lower(email)=lower($1) AND NOT is_used AND cancelled_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`, email, now))
	if err != nil {
		return nil, notFound(err)
	}
	return inv, nil
}

func (r InvitationRepository) ListInvitations(ctx context.Context) ([]domain.Invitation, error) {
	rows, err := r.DB.Pool.Query(ctx, `SELECT `+invitationColumns+` FROM invitations ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanInvitation)
}

func (r InvitationRepository) CancelInvitation(ctx context.Context, id int64, at time.Time) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.Pool.QueryRow(ctx, `
		UPDATE invitations SET cancelled_at=$2
		WHERE id=$1 AND NOT is_used AND cancelled_at IS NULL
		RETURNING `+invitationColumns, id, at))
	return conditional(inv, err)
}

func (r InvitationRepository) RenewInvitation(ctx context.Context, id int64, token string, expiresAt time.Time) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.DB.Pool.QueryRow(ctx, `
		UPDATE invitations SET token=$2, expires_at=$3
		WHERE id=$1 AND NOT is_used AND cancelled_at IS NULL
		RETURNING `+invitationColumns, id, token, expiresAt))
	return conditional(inv, err)
}

// AcceptInvitation claims the token and creates the account in one transaction.
// A second caller with the same token finds the row already used and gets ErrStateChanged.
func (r InvitationRepository) AcceptInvitation(ctx context.Context, p ports.AcceptInvitationParams) (*domain.User, *domain.Staff, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	var invID int64
	err = tx.QueryRow(ctx, `
		UPDATE invitations SET is_used=true, used_at=$2
		WHERE token=$1 AND NOT is_used AND cancelled_at IS NULL AND expires_at > $2
		RETURNING id
	`, p.Token, p.Now).Scan(&invID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ports.ErrStateChanged
	}
	if err != nil {
		return nil, nil, err
	}

	user, err := createUserWith(ctx, tx, p.User)
	if err != nil {
		return nil, nil, err
	}

	s := p.Staff
	staff, err := scanStaff(tx.QueryRow(ctx, `
		INSERT INTO staff (staff_code, user_id, name, email, phone, department, designation, salary, salary_visible, status,
			join_date, branch_id, shift_id, created_at, updated_at)
		VALUES ('STF-' || lpad(nextval('staff_code_seq')::text, 4, '0'), $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12, now(), now())
		RETURNING `+staffColumns,
		user.ID, s.Name, s.Email, s.Phone, s.Department, s.Designation, db.Numeric(s.Salary), s.SalaryVisible,
		string(s.Status), s.JoinDate, s.BranchID, s.ShiftID))
	if err != nil {
		return nil, nil, writeErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	user.StaffID = &staff.ID
	return user, staff, nil
}

func scanInvitation(row rowScanner) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := row.Scan(&inv.ID, &inv.Email, &inv.Name, (*string)(&inv.Role), &inv.Department, &inv.Designation,
		db.Dec(&inv.Salary), &inv.BranchID, &inv.Token, &inv.ExpiresAt, &inv.IsUsed, &inv.UsedAt, &inv.CancelledAt,
		&inv.InvitedBy, &inv.CreatedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}
