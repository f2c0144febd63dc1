package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type StaffService struct {
	Staff  ports.StaffStore
	Audit  Auditor
	Logger *slog.Logger
	Now    func() time.Time
}

func (s StaffService) List(ctx context.Context, f ports.StaffFilter) ([]domain.Staff, int, error) {
	if f.Status != "" && f.Status != domain.StaffActive && f.Status != domain.StaffInactive {
		return nil, 0, apperr.Field("status", "must be active or inactive")
	}
	items, total, err := s.Staff.ListStaff(ctx, f)
	if err != nil {
		return nil, 0, storeErr(err, "staff")
	}
	if items == nil {
		items = []domain.Staff{}
	}
	return items, total, nil
}

func (s StaffService) Get(ctx context.Context, id int64) (*domain.Staff, error) {
	st, err := s.Staff.GetStaff(ctx, id)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	return st, nil
}

// Me returns the staff profile of the caller.
func (s StaffService) Me(ctx context.Context, actor Actor) (*domain.Staff, error) {
	id, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateStaffInput carries optional profile changes; nil fields are left alone.
type UpdateStaffInput struct {
	Name          *string
	Phone         *string
	Department    *string
	Designation   *string
	JoinDate      *string
	BranchID      *int64
	ShiftID       *int64
	SalaryVisible *bool
}

func (s StaffService) UpdateProfile(ctx context.Context, actor Actor, id int64, in UpdateStaffInput) (*domain.Staff, error) {
	st, err := s.Staff.GetStaff(ctx, id)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Field("name", "must not be empty")
		}
		st.Name = name
	}
	if in.Phone != nil {
		st.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Department != nil {
		st.Department = strings.TrimSpace(*in.Department)
	}
	if in.Designation != nil {
		st.Designation = strings.TrimSpace(*in.Designation)
	}
	if in.JoinDate != nil {
		d, err := parseDate("joinDate", *in.JoinDate)
		if err != nil {
			return nil, err
		}
		st.JoinDate = d
	}
	if in.BranchID != nil {
		st.BranchID = in.BranchID
	}
	if in.ShiftID != nil {
		st.ShiftID = in.ShiftID
	}
	if in.SalaryVisible != nil {
		st.SalaryVisible = *in.SalaryVisible
	}
	updated, err := s.Staff.UpdateStaff(ctx, *st)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	s.Audit.Record(ctx, actor, "staff.update", "staff", id, "profile of %s updated", updated.StaffCode)
	return updated, nil
}

// ChangeSalary sets a new salary and records the previous one in the history.
func (s StaffService) ChangeSalary(ctx context.Context, actor Actor, id int64, salary decimal.Decimal, reason string) (*domain.Staff, error) {
	if err := requirePositive("salary", salary); err != nil {
		return nil, err
	}
	current, err := s.Staff.GetStaff(ctx, id)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	salary = domain.Round2(salary)
	if current.Salary.Equal(salary) {
		return nil, apperr.Conflict("salary is already %s", salary.StringFixed(2))
	}
	updated, err := s.Staff.ChangeSalary(ctx, domain.SalaryHistory{
		StaffID:   id,
		NewSalary: salary,
		Reason:    strings.TrimSpace(reason),
		ChangedBy: actor.ref(),
	})
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	loggerOrDefault(s.Logger).InfoContext(ctx, "salary changed", "staff_id", id, "from", current.Salary.StringFixed(2), "to", salary.StringFixed(2))
	s.Audit.Record(ctx, actor, "staff.salary", "staff", id, "salary %s -> %s", current.Salary.StringFixed(2), salary.StringFixed(2))
	return updated, nil
}

// SetStatus toggles a staff member between active and inactive. Staff are never deleted.
func (s StaffService) SetStatus(ctx context.Context, actor Actor, id int64, status domain.StaffStatus) error {
	if status != domain.StaffActive && status != domain.StaffInactive {
		return apperr.Field("status", "must be active or inactive")
	}
	if err := s.Staff.SetStaffStatus(ctx, id, status); err != nil {
		return storeErr(err, "staff")
	}
	s.Audit.Record(ctx, actor, "staff.status", "staff", id, "status set to %s", status)
	return nil
}

func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SetSalaryPin stores the caller's PIN guarding their salary view.
func (s StaffService) SetSalaryPin(ctx context.Context, actor Actor, pin string) error {
	id, err := actor.ownStaffID()
	if err != nil {
		return err
	}
	if !validPin(pin) {
		return apperr.Field("pin", "must be 4 to 6 digits")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(fmt.Errorf("hash pin: %w", err))
	}
	if err := s.Staff.SetSalaryPin(ctx, id, string(hash)); err != nil {
		return storeErr(err, "staff")
	}
	s.Audit.Record(ctx, actor, "staff.salary_pin", "staff", id, "salary pin set")
	return nil
}

type SalaryView struct {
	StaffID int64                  `json:"staffId"`
	Salary  decimal.Decimal        `json:"salary"`
	History []domain.SalaryHistory `json:"history"`
}

// MySalary reveals the caller's salary when HR made it visible and the PIN matches.
func (s StaffService) MySalary(ctx context.Context, actor Actor, pin string) (*SalaryView, error) {
	id, err := actor.ownStaffID()
	if err != nil {
		return nil, err
	}
	st, err := s.Staff.GetStaff(ctx, id)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	if !st.SalaryVisible {
		return nil, apperr.Forbidden("salary is not visible for this account")
	}
	if st.SalaryPinHash == nil {
		return nil, apperr.Conflict("set a salary pin first")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*st.SalaryPinHash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperr.Forbidden("incorrect pin")
		}
		return nil, apperr.Internal(err)
	}
	history, err := s.Staff.ListSalaryHistory(ctx, id)
	if err != nil {
		return nil, storeErr(err, "salary history")
	}
	if history == nil {
		history = []domain.SalaryHistory{}
	}
	return &SalaryView{StaffID: id, Salary: st.Salary, History: history}, nil
}
