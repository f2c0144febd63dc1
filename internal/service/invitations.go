package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/metrics"
	"hrdesk-backend/internal/ports"
)

const minPasswordLength = 8

type InvitationService struct {
	Invitations ports.InvitationStore
	Users       ports.UserStore
	Audit       Auditor
	Logger      *slog.Logger
	Location    *time.Location
	TTL         time.Duration
	BaseURL     string
	Now         func() time.Time
	// NewToken overrides token generation; uuid v4 when nil.
	NewToken func() string
}

type CreateInvitationInput struct {
	Email       string
	Name        string
	Role        domain.UserRole
	Department  string
	Designation string
	Salary      decimal.Decimal
	BranchID    *int64
}

type AcceptInvitationInput struct {
	Name     string
	Password string
	Phone    string
}

func (s InvitationService) token() string {
	if s.NewToken != nil {
		return s.NewToken()
	}
	return uuid.NewString()
}

func (s InvitationService) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Link is the onboarding URL embedded in the invitation and its QR code.
func (s InvitationService) Link(inv domain.Invitation) string {
	return strings.TrimRight(s.BaseURL, "/") + "/" + inv.Token
}

func (s InvitationService) Create(ctx context.Context, actor Actor, in CreateInvitationInput) (*domain.Invitation, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, apperr.Field("email", "must be a valid email address")
	}
	email := strings.ToLower(addr.Address)
	if in.Role == "" {
		in.Role = domain.RoleStaff
	}
	if !in.Role.Valid() {
		return nil, apperr.Field("role", "must be one of admin, manager, staff")
	}
	if err := requireNonNegative("salary", in.Salary); err != nil {
		return nil, err
	}

	if _, err := s.Users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("a user with email %s already exists", email)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, storeErr(err, "user")
	}
	now := nowFrom(s.Now)
	if _, err := s.Invitations.FindActiveInvitationByEmail(ctx, email, now); err == nil {
		return nil, apperr.Conflict("an active invitation for %s already exists", email)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, storeErr(err, "invitation")
	}

	inv, err := s.Invitations.CreateInvitation(ctx, domain.Invitation{
		Email:       email,
		Name:        strings.TrimSpace(in.Name),
		Role:        in.Role,
		Department:  strings.TrimSpace(in.Department),
		Designation: strings.TrimSpace(in.Designation),
		Salary:      domain.Round2(in.Salary),
		BranchID:    in.BranchID,
		Token:       s.token(),
		ExpiresAt:   now.Add(s.ttl()),
		InvitedBy:   actor.ref(),
	})
	if err != nil {
		return nil, storeErr(err, "invitation")
	}
	metrics.Invitations.WithLabelValues("created").Inc()
	s.Audit.Record(ctx, actor, "invitation.create", "invitation", inv.ID, "invited %s as %s", inv.Email, inv.Role)
	return inv, nil
}

// Bulk creates one invitation per item; failures are reported per email.
func (s InvitationService) Bulk(ctx context.Context, actor Actor, items []CreateInvitationInput) BulkResult[domain.Invitation] {
	var res BulkResult[domain.Invitation]
	for _, in := range items {
		inv, err := s.Create(ctx, actor, in)
		if err != nil {
			res.fail(in.Email, err)
			continue
		}
		res.Succeeded = append(res.Succeeded, *inv)
	}
	return res
}

func (s InvitationService) List(ctx context.Context) ([]domain.Invitation, error) {
	items, err := s.Invitations.ListInvitations(ctx)
	if err != nil {
		return nil, storeErr(err, "invitation")
	}
	if items == nil {
		items = []domain.Invitation{}
	}
	return items, nil
}

func usableInvitation(inv *domain.Invitation, now time.Time) error {
	switch inv.StatusAt(now) {
	case domain.InvitationAccepted:
		return apperr.Conflict("this invitation has already been used")
	case domain.InvitationCancelled:
		return apperr.Conflict("this invitation has been cancelled")
	case domain.InvitationExpired:
		return apperr.Conflict("this invitation expired on %s", inv.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// Validate returns the invitation behind token when it can still be accepted.
func (s InvitationService) Validate(ctx context.Context, token string) (*domain.Invitation, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperr.Field("token", "is required")
	}
	inv, err := s.Invitations.GetInvitationByToken(ctx, token)
	if err != nil {
		return nil, storeErr(err, "invitation")
	}
	if err := usableInvitation(inv, nowFrom(s.Now)); err != nil {
		return nil, err
	}
	return inv, nil
}

// Accept consumes the invitation and creates its user and staff profile.
// A token that is expired, used or cancelled creates nothing.
func (s InvitationService) Accept(ctx context.Context, token string, in AcceptInvitationInput) (*domain.User, *domain.Staff, error) {
	inv, err := s.Validate(ctx, token)
	if err != nil {
		metrics.Invitations.WithLabelValues("rejected").Inc()
		return nil, nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, nil, apperr.Field("password", fmt.Sprintf("must be at least %d characters", minPasswordLength))
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = inv.Name
	}
	if name == "" {
		return nil, nil, apperr.Field("name", "is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}
	hashed := string(hash)
	now := nowFrom(s.Now)

	user, staff, err := s.Invitations.AcceptInvitation(ctx, ports.AcceptInvitationParams{
		Token: token,
		Now:   now,
		User: domain.User{
			Name:         name,
			Email:        inv.Email,
			Role:         inv.Role,
			PasswordHash: &hashed,
		},
		Staff: domain.Staff{
			Name:        name,
			Email:       inv.Email,
			Phone:       strings.TrimSpace(in.Phone),
			Department:  inv.Department,
			Designation: inv.Designation,
			Salary:      inv.Salary,
			Status:      domain.StaffActive,
			JoinDate:    domain.DateOf(now, locationOrUTC(s.Location)),
			BranchID:    inv.BranchID,
		},
	})
	switch {
	case errors.Is(err, ports.ErrStateChanged):
		metrics.Invitations.WithLabelValues("rejected").Inc()
		return nil, nil, apperr.Conflict("this invitation is no longer valid")
	case errors.Is(err, ports.ErrDuplicate):
		metrics.Invitations.WithLabelValues("rejected").Inc()
		return nil, nil, apperr.Conflict("an account with email %s already exists", inv.Email)
	case err != nil:
		return nil, nil, storeErr(err, "invitation")
	}
	metrics.Invitations.WithLabelValues("accepted").Inc()
	loggerOrDefault(s.Logger).InfoContext(ctx, "invitation accepted", "invitation_id", inv.ID, "staff_code", staff.StaffCode)
	s.Audit.Record(ctx, Actor{UserID: user.ID, Email: user.Email, Role: user.Role}, "invitation.accept", "invitation", inv.ID, "staff %s created", staff.StaffCode)
	return user, staff, nil
}

func (s InvitationService) Cancel(ctx context.Context, actor Actor, id int64) (*domain.Invitation, error) {
	inv, err := s.Invitations.CancelInvitation(ctx, id, nowFrom(s.Now))
	if errors.Is(err, ports.ErrStateChanged) {
		return nil, s.stateError(ctx, id)
	}
	if err != nil {
		return nil, storeErr(err, "invitation")
	}
	metrics.Invitations.WithLabelValues("cancelled").Inc()
	s.Audit.Record(ctx, actor, "invitation.cancel", "invitation", id, "invitation for %s cancelled", inv.Email)
	return inv, nil
}

// Resend issues a fresh token and expiry; the previous link stops working.
func (s InvitationService) Resend(ctx context.Context, actor Actor, id int64) (*domain.Invitation, error) {
	inv, err := s.Invitations.RenewInvitation(ctx, id, s.token(), nowFrom(s.Now).Add(s.ttl()))
	if errors.Is(err, ports.ErrStateChanged) {
		return nil, s.stateError(ctx, id)
	}
	if err != nil {
		return nil, storeErr(err, "invitation")
	}
	metrics.Invitations.WithLabelValues("resent").Inc()
	s.Audit.Record(ctx, actor, "invitation.resend", "invitation", id, "invitation for %s renewed", inv.Email)
	return inv, nil
}

// stateError explains why a conditional invitation update matched nothing.
func (s InvitationService) stateError(ctx context.Context, id int64) error {
	inv, err := s.Invitations.GetInvitation(ctx, id)
	if err != nil {
		return storeErr(err, "invitation")
	}
	if inv.IsUsed {
		return apperr.Conflict("this invitation has already been used")
	}
	return apperr.Conflict("this invitation has been cancelled")
}

// QRCode renders the invitation link as a PNG.
func (s InvitationService) QRCode(ctx context.Context, id int64, size int) ([]byte, error) {
	inv, err := s.Invitations.GetInvitation(ctx, id)
	if err != nil {
		return nil, storeErr(err, "invitation")
	}
	if err := usableInvitation(inv, nowFrom(s.Now)); err != nil {
		return nil, err
	}
	if size <= 0 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(s.Link(*inv), qrcode.Medium, size)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("encode qr: %w", err))
	}
	return png, nil
}
