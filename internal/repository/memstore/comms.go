package memstore

import (
	"context"
	"sort"
	"time"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

func (s *Store) CreateNotice(_ context.Context, n domain.Notice) (*domain.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = s.nextID()
	n.CreatedAt = s.stamp()
	n.UpdatedAt = n.CreatedAt
	s.notices[n.ID] = n
	return &n, nil
}

func (s *Store) UpdateNotice(_ context.Context, in domain.Notice) (*domain.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[in.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	n.Title, n.Body, n.Priority = in.Title, in.Body, in.Priority
	n.UpdatedAt = s.stamp()
	s.notices[n.ID] = n
	return &n, nil
}

func (s *Store) GetNotice(_ context.Context, id int64) (*domain.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notices[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &n, nil
}

func (s *Store) ListNotices(_ context.Context, status domain.NoticeStatus) ([]domain.Notice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Notice
	for _, n := range s.notices {
		if status != "" && n.Status != status {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SetNoticeStatus(_ context.Context, id int64, status domain.NoticeStatus, at time.Time) (*domain.Notice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notices[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	n.Status = status
	switch status {
	case domain.NoticePublished:
		n.PublishedAt = &at
	case domain.NoticeUnpublished:
		n.UnpublishedAt = &at
	}
	n.UpdatedAt = s.stamp()
	s.notices[id] = n
	return &n, nil
}

func (s *Store) DeleteNotice(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notices[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.notices, id)
	return nil
}

func (s *Store) CreateNotification(_ context.Context, n domain.Notification) (*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[n.UserID]; !ok {
		return nil, ports.ErrNotFound
	}
	n.ID = s.nextID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.stamp()
	}
	s.notifications[n.ID] = n
	return &n, nil
}

func (s *Store) FanOutNotification(_ context.Context, n domain.Notification) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.stamp()
	}
	count := 0
	for id := range s.users {
		row := n
		row.ID = s.nextID()
		row.UserID = id
		s.notifications[row.ID] = row
		count++
	}
	return count, nil
}

func (s *Store) ListNotifications(_ context.Context, userID int64, limit int) ([]domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit <= 0 {
		limit = 50
	}
	return page(out, ports.Page{Limit: limit}), nil
}

func (s *Store) CountUnread(_ context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(_ context.Context, userID, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return ports.ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
		s.notifications[id] = n
	}
	return nil
}

func (s *Store) MarkAllRead(_ context.Context, userID int64, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for id, n := range s.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			n.ReadAt = &at
			s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateInvitation(_ context.Context, inv domain.Invitation) (*domain.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invitations {
		if existing.Token == inv.Token {
			return nil, ports.ErrDuplicate
		}
	}
	inv.ID = s.nextID()
	inv.CreatedAt = s.stamp()
	s.invitations[inv.ID] = inv
	return &inv, nil
}

func (s *Store) GetInvitation(_ context.Context, id int64) (*domain.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &inv, nil
}

func (s *Store) GetInvitationByToken(_ context.Context, token string) (*domain.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitations {
		if inv.Token == token {
			return &inv, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) FindActiveInvitationByEmail(_ context.Context, email string, now time.Time) (*domain.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invitations {
		if sameText(inv.Email, email) && inv.StatusAt(now) == domain.InvitationPending {
			return &inv, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (s *Store) ListInvitations(_ context.Context) ([]domain.Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Invitation, 0, len(s.invitations))
	for _, inv := range s.invitations {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) CancelInvitation(_ context.Context, id int64, at time.Time) (*domain.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[id]
	if !ok || inv.IsUsed || inv.CancelledAt != nil {
		return nil, ports.ErrStateChanged
	}
	inv.CancelledAt = &at
	s.invitations[id] = inv
	return &inv, nil
}

func (s *Store) RenewInvitation(_ context.Context, id int64, token string, expiresAt time.Time) (*domain.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[id]
	if !ok || inv.IsUsed || inv.CancelledAt != nil {
		return nil, ports.ErrStateChanged
	}
	inv.Token = token
	inv.ExpiresAt = expiresAt
	s.invitations[id] = inv
	return &inv, nil
}

func (s *Store) AcceptInvitation(_ context.Context, p ports.AcceptInvitationParams) (*domain.User, *domain.Staff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var inv domain.Invitation
	found := false
	for _, candidate := range s.invitations {
		if candidate.Token == p.Token {
			inv, found = candidate, true
			break
		}
	}
	if !found || inv.StatusAt(p.Now) != domain.InvitationPending {
		return nil, nil, ports.ErrStateChanged
	}
	user, err := s.createUserLocked(p.User)
	if err != nil {
		return nil, nil, err
	}
	st := p.Staff
	st.StaffCode = ""
	st.UserID = &user.ID
	staff := s.createStaffLocked(st)
	user.StaffID = &staff.ID
	s.users[user.ID] = *user

	now := p.Now
	inv.IsUsed = true
	inv.UsedAt = &now
	s.invitations[inv.ID] = inv
	return user, staff, nil
}

func (s *Store) CreateAuditLog(_ context.Context, l domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.nextID()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.stamp()
	}
	s.auditLogs = append(s.auditLogs, l)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, f ports.AuditFilter) ([]domain.AuditLog, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AuditLog
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		l := s.auditLogs[i]
		if f.Entity != "" && l.Entity != f.Entity {
			continue
		}
		if f.EntityID != "" && l.EntityID != f.EntityID {
			continue
		}
		if f.ActorID != nil && (l.ActorID == nil || *l.ActorID != *f.ActorID) {
			continue
		}
		out = append(out, l)
	}
	return page(out, f.Page), len(out), nil
}

func (s *Store) CreatePosition(_ context.Context, p domain.JobPosition) (*domain.JobPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID()
	p.CreatedAt = s.stamp()
	s.positions[p.ID] = p
	return &p, nil
}

func (s *Store) GetPosition(_ context.Context, id int64) (*domain.JobPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &p, nil
}

func (s *Store) ListPositions(_ context.Context, openOnly bool) ([]domain.JobPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.JobPosition
	for _, p := range s.positions {
		if openOnly && !p.Open {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SetPositionOpen(_ context.Context, id int64, open bool) (*domain.JobPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.positions[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	p.Open = open
	s.positions[id] = p
	return &p, nil
}

func (s *Store) CreateApplication(_ context.Context, a domain.JobApplication) (*domain.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.positions[a.PositionID]; !ok {
		return nil, ports.ErrNotFound
	}
	a.ID = s.nextID()
	a.CreatedAt = s.stamp()
	a.UpdatedAt = a.CreatedAt
	s.applications[a.ID] = a
	return &a, nil
}

func (s *Store) ListApplications(_ context.Context, positionID *int64) ([]domain.JobApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.JobApplication
	for _, a := range s.applications {
		if positionID != nil && a.PositionID != *positionID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *Store) SetApplicationStatus(_ context.Context, id int64, status domain.ApplicationStatus) (*domain.JobApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	a.Status = status
	a.UpdatedAt = s.stamp()
	s.applications[id] = a
	return &a, nil
}

var (
	_ ports.UserStore         = (*Store)(nil)
	_ ports.BranchStore       = (*Store)(nil)
	_ ports.StaffStore        = (*Store)(nil)
	_ ports.ShiftStore        = (*Store)(nil)
	_ ports.AttendanceStore   = (*Store)(nil)
	_ ports.OvertimeStore     = (*Store)(nil)
	_ ports.PayrollStore      = (*Store)(nil)
	_ ports.ClientStore       = (*Store)(nil)
	_ ports.OrderStore        = (*Store)(nil)
	_ ports.EarningStore      = (*Store)(nil)
	_ ports.ExpenseStore      = (*Store)(nil)
	_ ports.DebitStore        = (*Store)(nil)
	_ ports.ShareholderStore  = (*Store)(nil)
	_ ports.TransferStore     = (*Store)(nil)
	_ ports.LedgerStore       = (*Store)(nil)
	_ ports.NoticeStore       = (*Store)(nil)
	_ ports.NotificationStore = (*Store)(nil)
	_ ports.InvitationStore   = (*Store)(nil)
	_ ports.AuditStore        = (*Store)(nil)
	_ ports.CareerStore       = (*Store)(nil)
)
