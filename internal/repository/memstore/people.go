package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

func (s *Store) CreateUser(_ context.Context, u domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUserLocked(u)
}

func (s *Store) createUserLocked(u domain.User) (*domain.User, error) {
	for _, existing := range s.users {
		if sameText(existing.Email, u.Email) {
			return nil, fmt.Errorf("%w: email %s", ports.ErrDuplicate, u.Email)
		}
		if u.FirebaseUID != nil && existing.FirebaseUID != nil && *existing.FirebaseUID == *u.FirebaseUID {
			return nil, fmt.Errorf("%w: firebase uid", ports.ErrDuplicate)
		}
	}
	u.ID = s.nextID()
	u.CreatedAt = s.stamp()
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return &u, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return s.withStaffID(u), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if sameText(u.Email, email) {
			return s.withStaffID(u), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) GetUserByFirebaseUID(_ context.Context, uid string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.FirebaseUID != nil && *u.FirebaseUID == uid {
			return s.withStaffID(u), nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) LinkFirebaseUID(_ context.Context, userID int64, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ports.ErrNotFound
	}
	u.FirebaseUID = &uid
	u.UpdatedAt = s.stamp()
	s.users[userID] = u
	return nil
}

func (s *Store) withStaffID(u domain.User) *domain.User {
	for _, st := range s.staff {
		if st.UserID != nil && *st.UserID == u.ID {
			id := st.ID
			u.StaffID = &id
			break
		}
	}
	return &u
}

func (s *Store) CreateBranch(_ context.Context, b domain.Branch) (*domain.Branch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.branches {
		if sameText(existing.Name, b.Name) {
			return nil, ports.ErrDuplicate
		}
	}
	b.ID = s.nextID()
	b.CreatedAt = s.stamp()
	s.branches[b.ID] = b
	return &b, nil
}

func (s *Store) ListBranches(_ context.Context) ([]domain.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Branch, 0, len(s.branches))
	for _, b := range s.branches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateStaff inserts a staff row directly and assigns the next staff code.
// Production rows are only created by invitation acceptance.
func (s *Store) CreateStaff(_ context.Context, st domain.Staff) (*domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createStaffLocked(st), nil
}

func (s *Store) createStaffLocked(st domain.Staff) *domain.Staff {
	s.staffSeq++
	st.ID = s.nextID()
	if st.StaffCode == "" {
		st.StaffCode = fmt.Sprintf("STF-%04d", s.staffSeq)
	}
	if st.Status == "" {
		st.Status = domain.StaffActive
	}
	st.CreatedAt = s.stamp()
	st.UpdatedAt = st.CreatedAt
	s.staff[st.ID] = st
	return &st
}

func (s *Store) ListStaff(_ context.Context, f ports.StaffFilter) ([]domain.Staff, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []domain.Staff
	for _, st := range s.staff {
		if f.BranchID != nil && (st.BranchID == nil || *st.BranchID != *f.BranchID) {
			continue
		}
		if f.Status != "" && st.Status != f.Status {
			continue
		}
		if f.Department != "" && st.Department != f.Department {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.Name+" "+st.StaffCode+" "+st.Email), search) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StaffCode < out[j].StaffCode })
	return page(out, f.Page), len(out), nil
}

func (s *Store) GetStaff(_ context.Context, id int64) (*domain.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.staff[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &st, nil
}

func (s *Store) GetStaffByUserID(_ context.Context, userID int64) (*domain.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.staff {
		if st.UserID != nil && *st.UserID == userID {
			return &st, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) UpdateStaff(_ context.Context, in domain.Staff) (*domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[in.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	st.Name, st.Email, st.Phone = in.Name, in.Email, in.Phone
	st.Department, st.Designation = in.Department, in.Designation
	st.SalaryVisible, st.JoinDate = in.SalaryVisible, in.JoinDate
	st.BranchID, st.ShiftID = in.BranchID, in.ShiftID
	st.UpdatedAt = s.stamp()
	s.staff[st.ID] = st
	return &st, nil
}

func (s *Store) ChangeSalary(_ context.Context, h domain.SalaryHistory) (*domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[h.StaffID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	h.ID = s.nextID()
	h.PreviousSalary = st.Salary
	h.ChangedAt = s.stamp()
	s.salaryHistory = append(s.salaryHistory, h)
	st.Salary = h.NewSalary
	st.UpdatedAt = h.ChangedAt
	s.staff[st.ID] = st
	return &st, nil
}

func (s *Store) SetStaffStatus(_ context.Context, id int64, status domain.StaffStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[id]
	if !ok {
		return ports.ErrNotFound
	}
	st.Status = status
	st.UpdatedAt = s.stamp()
	s.staff[id] = st
	return nil
}

func (s *Store) SetSalaryPin(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.staff[id]
	if !ok {
		return ports.ErrNotFound
	}
	st.SalaryPinHash = &hash
	st.UpdatedAt = s.stamp()
	s.staff[id] = st
	return nil
}

func (s *Store) ListSalaryHistory(_ context.Context, staffID int64) ([]domain.SalaryHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SalaryHistory
	for i := len(s.salaryHistory) - 1; i >= 0; i-- {
		if s.salaryHistory[i].StaffID == staffID {
			out = append(out, s.salaryHistory[i])
		}
	}
	return out, nil
}

func (s *Store) CountStaffByStatus(_ context.Context) (map[domain.StaffStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[domain.StaffStatus]int{}
	for _, st := range s.staff {
		out[st.Status]++
	}
	return out, nil
}

func (s *Store) ListShifts(_ context.Context) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Shift, 0, len(s.shifts))
	for _, sh := range s.shifts {
		out = append(out, sh)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) GetShift(_ context.Context, id int64) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sh, ok := s.shifts[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &sh, nil
}

func (s *Store) CreateShift(_ context.Context, sh domain.Shift) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh.ID = s.nextID()
	sh.CreatedAt = s.stamp()
	s.shifts[sh.ID] = sh
	return &sh, nil
}

func (s *Store) AddShiftOffDate(_ context.Context, d domain.ShiftOffDate) (*domain.ShiftOffDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.shifts[d.ShiftID]; !ok {
		return nil, ports.ErrNotFound
	}
	for _, existing := range s.offDates {
		if existing.ShiftID == d.ShiftID && dateKey(existing.Date) == dateKey(d.Date) {
			return nil, ports.ErrDuplicate
		}
	}
	d.ID = s.nextID()
	s.offDates[d.ID] = d
	return &d, nil
}

func (s *Store) ListShiftOffDates(_ context.Context, shiftIDs []int64, from, to time.Time) ([]domain.ShiftOffDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ShiftOffDate
	for _, d := range s.offDates {
		if containsID(shiftIDs, d.ShiftID) && inRange(d.Date, &from, &to) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetAttendanceDay(_ context.Context, staffID int64, date time.Time) (*domain.AttendanceDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attendance[attendanceKey{staffID, dateKey(date)}]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &a, nil
}

func (s *Store) UpsertAttendanceDay(_ context.Context, a domain.AttendanceDay) (*domain.AttendanceDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attendanceKey{a.StaffID, dateKey(a.Date)}
	now := s.stamp()
	if existing, ok := s.attendance[key]; ok {
		a.ID = existing.ID
		a.CreatedAt = existing.CreatedAt
	} else {
		a.ID = s.nextID()
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.attendance[key] = a
	return &a, nil
}

func (s *Store) ListAttendance(_ context.Context, staffIDs []int64, from, to time.Time) ([]domain.AttendanceDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AttendanceDay
	for _, a := range s.attendance {
		if staffIDs != nil && !containsID(staffIDs, a.StaffID) {
			continue
		}
		if inRange(a.Date, &from, &to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StaffID < out[j].StaffID
	})
	return out, nil
}

func (s *Store) CreateOvertime(_ context.Context, o domain.Overtime) (*domain.Overtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o.ID = s.nextID()
	o.CreatedAt = s.stamp()
	o.UpdatedAt = o.CreatedAt
	s.overtimes[o.ID] = o
	return &o, nil
}

func (s *Store) GetOvertime(_ context.Context, id int64) (*domain.Overtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overtimes[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &o, nil
}

func (s *Store) FindScheduledOvertime(_ context.Context, staffID int64, date time.Time) (*domain.Overtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *domain.Overtime
	for _, o := range s.overtimes {
		if o.StaffID != staffID || o.Status != domain.OvertimeApproved || o.ActualStartTime != nil || dateKey(o.Date) != dateKey(date) {
			continue
		}
		if found == nil || o.StartTime.Before(found.StartTime) || (o.StartTime.Equal(found.StartTime) && o.ID < found.ID) {
			o := o
			found = &o
		}
	}
	if found == nil {
		return nil, ports.ErrNotFound
	}
	return found, nil
}

func (s *Store) FindActiveOvertime(_ context.Context, staffID int64) (*domain.Overtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if o, ok := s.activeOvertimeLocked(staffID); ok {
		return &o, nil
	}
	return nil, ports.ErrNotFound
}

func (s *Store) activeOvertimeLocked(staffID int64) (domain.Overtime, bool) {
	for _, o := range s.overtimes {
		if o.StaffID == staffID && o.State() == domain.OvertimeActive {
			return o, true
		}
	}
	return domain.Overtime{}, false
}

func (s *Store) MarkOvertimeStarted(_ context.Context, id int64, at time.Time) (*domain.Overtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overtimes[id]
	if !ok || o.ActualStartTime != nil || o.Status != domain.OvertimeApproved {
		return nil, ports.ErrStateChanged
	}
	if _, busy := s.activeOvertimeLocked(o.StaffID); busy {
		return nil, ports.ErrDuplicate
	}
	o.ActualStartTime = &at
	o.UpdatedAt = s.stamp()
	s.overtimes[id] = o
	return &o, nil
}

func (s *Store) MarkOvertimeStopped(_ context.Context, id int64, end time.Time, durationMinutes, earlyStopMinutes int) (*domain.Overtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overtimes[id]
	if !ok || o.State() != domain.OvertimeActive {
		return nil, ports.ErrStateChanged
	}
	o.EndTime = &end
	o.DurationMinutes = durationMinutes
	o.EarlyStopMinutes = earlyStopMinutes
	o.UpdatedAt = s.stamp()
	s.overtimes[id] = o
	return &o, nil
}

func (s *Store) SetOvertimeStatus(_ context.Context, id int64, status domain.OvertimeStatus, approver *int64) (*domain.Overtime, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.overtimes[id]
	if !ok || o.ActualStartTime != nil {
		return nil, ports.ErrStateChanged
	}
	o.Status = status
	o.ApprovedBy = approver
	o.UpdatedAt = s.stamp()
	s.overtimes[id] = o
	return &o, nil
}

func (s *Store) ListOvertime(_ context.Context, f ports.OvertimeFilter) ([]domain.Overtime, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Overtime
	for _, o := range s.overtimes {
		if f.StaffID != nil && o.StaffID != *f.StaffID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if !inRange(o.Date, f.From, f.To) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *Store) CreatePayment(_ context.Context, p domain.PayrollPayment) (*domain.PayrollPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.ReversedAt == nil && existing.StaffID == p.StaffID && existing.Month == p.Month && existing.PaymentType == p.PaymentType {
			return nil, fmt.Errorf("%w: active payment %d", ports.ErrDuplicate, existing.ID)
		}
	}
	p.ID = s.nextID()
	s.payments[p.ID] = p
	return &p, nil
}

func (s *Store) GetActivePayment(_ context.Context, staffID int64, month domain.Month, paymentType domain.PaymentType) (*domain.PayrollPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.ReversedAt == nil && p.StaffID == staffID && p.Month == month && p.PaymentType == paymentType {
			return &p, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) ReversePayment(_ context.Context, id int64, by *int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok || p.ReversedAt != nil {
		return ports.ErrNotFound
	}
	p.ReversedAt = &at
	p.ReversedBy = by
	s.payments[id] = p
	return nil
}

func (s *Store) ListPayments(_ context.Context, month domain.Month, includeReversed bool) ([]domain.PayrollPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PayrollPayment
	for _, p := range s.payments {
		if p.Month != month || (!includeReversed && p.ReversedAt != nil) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpsertAdjustment(_ context.Context, a domain.PayrollAdjustment) (*domain.PayrollAdjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.UpdatedAt = s.stamp()
	s.adjustments[adjustmentKey{a.StaffID, a.Month.String()}] = a
	return &a, nil
}

func (s *Store) ListAdjustments(_ context.Context, month domain.Month) ([]domain.PayrollAdjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PayrollAdjustment
	for k, a := range s.adjustments {
		if k.month == month.String() {
			out = append(out, a)
		}
	}
	return out, nil
}
