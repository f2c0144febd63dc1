package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

// Actor identifies the authenticated user performing an operation.
type Actor struct {
	UserID  int64
	StaffID *int64
	Email   string
	Role    domain.UserRole
}

func (a Actor) ref() *int64 {
	if a.UserID == 0 {
		return nil
	}
	id := a.UserID
	return &id
}

// BulkFailure describes one rejected item of a bulk request.
type BulkFailure struct {
	Key   string
	Error string
}

// BulkResult collects per-item outcomes; a failed item never undoes the others.
type BulkResult[T any] struct {
	Succeeded []T
	Failed    []BulkFailure
}

func (r *BulkResult[T]) fail(key string, err error) {
	msg := err.Error()
	if e, ok := apperr.As(err); ok {
		msg = e.Message
	}
	r.Failed = append(r.Failed, BulkFailure{Key: key, Error: msg})
}

// Auditor writes audit rows; a failed write is logged and never fails the caller.
type Auditor struct {
	Store  ports.AuditStore
	Logger *slog.Logger
}

func (a Auditor) Record(ctx context.Context, actor Actor, action, entity string, entityID int64, format string, args ...any) {
	if a.Store == nil {
		return
	}
	entry := domain.AuditLog{
		ActorID:  actor.ref(),
		Actor:    actor.Email,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Message:  fmt.Sprintf(format, args...),
	}
	if err := a.Store.CreateAuditLog(ctx, entry); err != nil {
		loggerOrDefault(a.Logger).WarnContext(ctx, "audit log write failed", "action", action, "entity", entity, "error", err)
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

func nowFrom(fn func() time.Time) time.Time {
	if fn == nil {
		return time.Now()
	}
	return fn()
}

func locationOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// storeErr converts store sentinel errors into typed application errors.
func storeErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ports.ErrNotFound):
		return apperr.NotFound(entity)
	case errors.Is(err, ports.ErrDuplicate):
		return apperr.Conflict("%s already exists", entity)
	case errors.Is(err, ports.ErrStateChanged):
		return apperr.Conflict("%s was changed by another request", entity)
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	return apperr.Internal(err)
}

func parseMonth(value string) (domain.Month, error) {
	if value == "" {
		return domain.Month{}, apperr.Field("month", "is required")
	}
	m, err := domain.ParseMonth(value)
	if err != nil {
		return domain.Month{}, apperr.Field("month", "must be formatted as YYYY-MM")
	}
	return m, nil
}

func parseDate(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, apperr.Field(field, "is required")
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, apperr.Field(field, "must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

func requirePositive(field string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return apperr.Field(field, "must be greater than 0")
	}
	return nil
}

func requireNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperr.Field(field, "must not be negative")
	}
	return nil
}

// ownStaffID returns the staff profile linked to the actor's account.
func (a Actor) ownStaffID() (int64, error) {
	if a.StaffID == nil {
		return 0, apperr.Forbidden("no staff profile is linked to this account")
	}
	return *a.StaffID, nil
}
