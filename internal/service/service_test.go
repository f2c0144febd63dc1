package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/repository/memstore"
)

var testNow = time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("date %q: %v", s, err)
	}
	return d
}

func seedStaff(t *testing.T, store *memstore.Store, name, salary string) domain.Staff {
	t.Helper()
	st, err := store.CreateStaff(context.Background(), domain.Staff{
		Name:     name,
		Email:    name + "@example.com",
		Salary:   dec(t, salary),
		JoinDate: date(t, "2024-01-01"),
	})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	return *st
}

var admin = Actor{UserID: 1, Email: "admin@example.com", Role: domain.RoleAdmin}
