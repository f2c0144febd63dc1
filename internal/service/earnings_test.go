package service

import (
	"context"
	"testing"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/repository/memstore"
)

func seedEarning(t *testing.T, store *memstore.Store, gross string) *domain.Earning {
	t.Helper()
	ctx := context.Background()
	c, err := store.CreateClient(ctx, domain.Client{ClientCode: "C" + gross, Name: "Client " + gross})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	e, err := store.CreateEarning(ctx, domain.Earning{ClientID: c.ID, Month: "2025-03", GrossAmount: dec(t, gross), NetAmount: dec(t, gross), Status: domain.EarningUnpaid})
	if err != nil {
		t.Fatalf("earning: %v", err)
	}
	return e
}

func TestWithdrawComputesAmounts(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := EarningService{Earnings: store, Audit: Auditor{Store: store}, Logger: discardLogger(), Now: fixedClock(testNow)}
	e := seedEarning(t, store, "1000")

	paid, err := svc.Withdraw(ctx, admin, e.ID, WithdrawInput{Fees: dec(t, "30.5"), Tax: dec(t, "19.5"), ConversionRate: dec(t, "120.998"), Notes: "payoneer"})
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if !paid.NetAmount.Equal(dec(t, "950")) || !paid.AmountInBDT.Equal(dec(t, "114948.1")) {
		t.Fatalf("unexpected net %s / bdt %s", paid.NetAmount, paid.AmountInBDT)
	}
	if paid.Status != domain.EarningPaid || paid.PaidAt == nil || !paid.PaidAt.Equal(testNow) {
		t.Fatalf("unexpected paid state %+v", paid)
	}

	_, err = svc.Withdraw(ctx, admin, e.ID, WithdrawInput{ConversionRate: dec(t, "110")})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second withdraw must conflict, got %v", err)
	}
	stored, _ := store.GetEarning(ctx, e.ID)
	if !stored.AmountInBDT.Equal(dec(t, "114948.1")) {
		t.Fatalf("rejected withdraw must not change the earning, got %s", stored.AmountInBDT)
	}
}

func TestWithdrawValidation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := EarningService{Earnings: store, Logger: discardLogger()}
	e := seedEarning(t, store, "100")

	cases := map[string]WithdrawInput{
		"zero rate":     {},
		"negative fees": {Fees: dec(t, "-1"), ConversionRate: dec(t, "1")},
		"over gross":    {Fees: dec(t, "60"), Tax: dec(t, "50"), ConversionRate: dec(t, "1")},
	}
	for name, in := range cases {
		if _, err := svc.Withdraw(ctx, admin, e.ID, in); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	if _, err := svc.Withdraw(ctx, admin, 999, WithdrawInput{ConversionRate: dec(t, "1")}); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRevertEarning(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := EarningService{Earnings: store, Logger: discardLogger(), Now: fixedClock(testNow)}
	e := seedEarning(t, store, "500")

	if _, err := svc.Revert(ctx, admin, e.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("reverting an unpaid earning must conflict, got %v", err)
	}
	if _, err := svc.Withdraw(ctx, admin, e.ID, WithdrawInput{ConversionRate: dec(t, "100")}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	reverted, err := svc.Revert(ctx, admin, e.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Status != domain.EarningUnpaid || !reverted.AmountInBDT.IsZero() || reverted.PaidAt != nil {
		t.Fatalf("unexpected reverted earning %+v", reverted)
	}
}

func TestBuildEarningStats(t *testing.T) {
	items := []domain.Earning{
		{ClientID: 1, ClientName: "A", Month: "2025-01", GrossAmount: dec(t, "100"), Status: domain.EarningPaid, AmountInBDT: dec(t, "12000")},
		{ClientID: 1, ClientName: "A", Month: "2025-02", GrossAmount: dec(t, "50"), Status: domain.EarningUnpaid},
		{ClientID: 2, ClientName: "B", Month: "2025-02", GrossAmount: dec(t, "300"), Status: domain.EarningUnpaid, IsLegacy: true},
		{ClientID: 2, ClientName: "B", Month: "2024-12", GrossAmount: dec(t, "999"), Status: domain.EarningPaid, AmountInBDT: dec(t, "1")},
	}
	stats := buildEarningStats(items, 2025)
	if !stats.TotalGross.Equal(dec(t, "450")) || stats.PaidCount != 1 || stats.UnpaidCount != 2 || stats.LegacyCount != 1 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if len(stats.ByClient) != 2 || stats.ByClient[0].ClientID != 2 {
		t.Fatalf("expected clients ordered by gross, got %+v", stats.ByClient)
	}
	if len(stats.Monthly) != 2 || stats.Monthly[0].Month != "2025-01" || !stats.Monthly[1].Gross.Equal(dec(t, "350")) {
		t.Fatalf("unexpected monthly trend %+v", stats.Monthly)
	}
}
