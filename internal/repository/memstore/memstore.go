// Package memstore keeps every store in process memory. It backs the service
// tests and the server when no database is configured for a local demo.
package memstore

import (
	"context"
	"strings"
	"sync"
	"time"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type attendanceKey struct {
	staffID int64
	date    string
}

type adjustmentKey struct {
	staffID int64
	month   string
}

type Store struct {
	mu  sync.RWMutex
	seq int64
	now func() time.Time

	users         map[int64]domain.User
	branches      map[int64]domain.Branch
	staff         map[int64]domain.Staff
	staffSeq      int
	salaryHistory []domain.SalaryHistory
	shifts        map[int64]domain.Shift
	offDates      map[int64]domain.ShiftOffDate
	attendance    map[attendanceKey]domain.AttendanceDay
	overtimes     map[int64]domain.Overtime
	payments      map[int64]domain.PayrollPayment
	adjustments   map[adjustmentKey]domain.PayrollAdjustment
	clients       map[int64]domain.Client
	orders        map[int64]domain.Order
	earnings      map[int64]domain.Earning
	expenses      map[int64]domain.Expense
	persons       map[int64]domain.Person
	debits        map[int64]domain.Debit
	shareholders  map[int64]domain.Shareholder
	distributions []domain.ProfitDistribution
	businesses    map[int64]domain.ExternalBusiness
	transfers     map[int64]domain.ProfitTransfer
	notices       map[int64]domain.Notice
	notifications map[int64]domain.Notification
	invitations   map[int64]domain.Invitation
	auditLogs     []domain.AuditLog
	positions     map[int64]domain.JobPosition
	applications  map[int64]domain.JobApplication
}

func New() *Store {
	return &Store{
		now:           time.Now,
		users:         map[int64]domain.User{},
		branches:      map[int64]domain.Branch{},
		staff:         map[int64]domain.Staff{},
		shifts:        map[int64]domain.Shift{},
		offDates:      map[int64]domain.ShiftOffDate{},
		attendance:    map[attendanceKey]domain.AttendanceDay{},
		overtimes:     map[int64]domain.Overtime{},
		payments:      map[int64]domain.PayrollPayment{},
		adjustments:   map[adjustmentKey]domain.PayrollAdjustment{},
		clients:       map[int64]domain.Client{},
		orders:        map[int64]domain.Order{},
		earnings:      map[int64]domain.Earning{},
		expenses:      map[int64]domain.Expense{},
		persons:       map[int64]domain.Person{},
		debits:        map[int64]domain.Debit{},
		shareholders:  map[int64]domain.Shareholder{},
		businesses:    map[int64]domain.ExternalBusiness{},
		transfers:     map[int64]domain.ProfitTransfer{},
		notices:       map[int64]domain.Notice{},
		notifications: map[int64]domain.Notification{},
		invitations:   map[int64]domain.Invitation{},
		positions:     map[int64]domain.JobPosition{},
		applications:  map[int64]domain.JobApplication{},
	}
}

// nextID must be called with the write lock held.
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

func page[T any](items []T, p ports.Page) []T {
	if p.Offset > 0 {
		if p.Offset >= len(items) {
			return nil
		}
		items = items[p.Offset:]
	}
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func inRange(d time.Time, from, to *time.Time) bool {
	if from != nil && d.Before(*from) {
		return false
	}
	if to != nil && !d.Before(*to) {
		return false
	}
	return true
}

func dateKey(d time.Time) string {
	return d.UTC().Format(domain.DateLayout)
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *Store) Health(context.Context) error { return nil }
