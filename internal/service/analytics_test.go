package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/repository/memstore"
)

type countingCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
	sets int
}

func (c *countingCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *countingCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	c.sets++
	return nil
}

func TestComputeFinancialSummary(t *testing.T) {
	s := ComputeFinancialSummary(domain.LedgerTotals{
		Earnings:      dec(t, "100000"),
		Expenses:      dec(t, "20000"),
		Transfers:     dec(t, "10000"),
		Distributions: dec(t, "5000"),
		Borrowed:      dec(t, "3000"),
		Returned:      dec(t, "1000"),
	})
	if !s.TotalShared.Equal(dec(t, "15000")) || !s.TotalDebit.Equal(dec(t, "2000")) {
		t.Fatalf("unexpected shared %s / debit %s", s.TotalShared, s.TotalDebit)
	}
	if !s.FinalAmount.Equal(dec(t, "67000")) {
		t.Fatalf("expected final amount 67000, got %s", s.FinalAmount)
	}
}

func TestComputeFinancialSummaryRounds(t *testing.T) {
	s := ComputeFinancialSummary(domain.LedgerTotals{
		Earnings: dec(t, "100.005"),
		Expenses: dec(t, "0.004"),
		Returned: dec(t, "10"),
	})
	if s.FinalAmount.StringFixed(2) != "90.01" || !s.TotalDebit.Equal(dec(t, "-10")) {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func seedLedger(t *testing.T, store *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	client, err := store.CreateClient(ctx, domain.Client{ClientCode: "ACME", Name: "Acme"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	paidAt := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	e, _ := store.CreateEarning(ctx, domain.Earning{ClientID: client.ID, Month: "2025-03", GrossAmount: dec(t, "1000"), Status: domain.EarningUnpaid})
	e.Status, e.PaidAt, e.AmountInBDT = domain.EarningPaid, &paidAt, dec(t, "100000")
	if _, err := store.MarkEarningPaid(ctx, *e); err != nil {
		t.Fatalf("paid: %v", err)
	}
	if _, err := store.CreateEarning(ctx, domain.Earning{ClientID: client.ID, Month: "2025-03", GrossAmount: dec(t, "250"), Status: domain.EarningUnpaid}); err != nil {
		t.Fatalf("unpaid earning: %v", err)
	}
	if _, err := store.CreateExpense(ctx, domain.Expense{Title: "rent", Amount: dec(t, "20000"), Date: date(t, "2025-03-01")}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	// outside the period
	if _, err := store.CreateExpense(ctx, domain.Expense{Title: "rent", Amount: dec(t, "20000"), Date: date(t, "2025-04-01")}); err != nil {
		t.Fatalf("expense: %v", err)
	}
	b, _ := store.CreateBusiness(ctx, domain.ExternalBusiness{Name: "Partner"})
	if _, err := store.CreateTransfer(ctx, domain.ProfitTransfer{BusinessID: b.ID, Amount: dec(t, "10000"), TransferDate: date(t, "2025-03-15"), Period: domain.MonthPeriod(mustMonth(t, "2025-03"))}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	sh, _ := store.CreateShareholder(ctx, domain.Shareholder{Name: "Owner", Percentage: dec(t, "50"), Active: true})
	if _, err := store.CreateDistributions(ctx, []domain.ProfitDistribution{{ShareholderID: sh.ID, Period: domain.MonthPeriod(mustMonth(t, "2025-03")), ShareAmount: dec(t, "5000")}}); err != nil {
		t.Fatalf("distribution: %v", err)
	}
	p, _ := store.CreatePerson(ctx, domain.Person{Name: "Rahim"})
	for typ, amount := range map[domain.DebitType]string{domain.DebitBorrow: "3000", domain.DebitReturn: "1000"} {
		if _, err := store.CreateDebit(ctx, domain.Debit{PersonID: p.ID, Type: typ, Amount: dec(t, amount), Date: date(t, "2025-03-05")}); err != nil {
			t.Fatalf("debit: %v", err)
		}
	}
}

func TestDashboardUsesCache(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	seedLedger(t, store)
	seedStaff(t, store, "olga", "10000")
	c := &countingCache{}
	svc := AnalyticsService{
		Ledger: store, Staff: store, Overtime: store, Earnings: store, AuditLog: store,
		Cache: c, CacheTTL: time.Minute, Logger: discardLogger(), Location: time.UTC, Now: fixedClock(testNow),
	}

	d, err := svc.Dashboard(ctx, "", "")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Period != "2025-03" || !d.Summary.FinalAmount.Equal(dec(t, "67000")) {
		t.Fatalf("unexpected dashboard %s %s", d.Period, d.Summary.FinalAmount)
	}
	if d.Staff.Active != 1 || d.UnpaidEarnings != 1 || !d.UnpaidEarningsAmount.Equal(dec(t, "250")) {
		t.Fatalf("unexpected counters %+v", d)
	}

	again, err := svc.Dashboard(ctx, domain.PeriodMonth, "2025-03")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if c.hits != 1 || c.sets != 1 {
		t.Fatalf("expected one cache hit and one write, got %d/%d", c.hits, c.sets)
	}
	if !again.Summary.FinalAmount.Equal(d.Summary.FinalAmount) {
		t.Fatalf("cached dashboard differs: %s", again.Summary.FinalAmount)
	}

	year, err := svc.Dashboard(ctx, domain.PeriodYear, "2025")
	if err != nil {
		t.Fatalf("year dashboard: %v", err)
	}
	// the april expense lands in the year only
	if !year.Summary.TotalExpenses.Equal(dec(t, "40000")) {
		t.Fatalf("expected yearly expenses 40000, got %s", year.Summary.TotalExpenses)
	}
}

func TestResolvePeriod(t *testing.T) {
	p, err := ResolvePeriod(domain.PeriodYear, "", testNow, time.UTC)
	if err != nil || p.String() != "2025" {
		t.Fatalf("expected current year, got %s (%v)", p, err)
	}
	if _, err := ResolvePeriod("week", "", testNow, time.UTC); err == nil {
		t.Fatalf("expected error for unknown period type")
	}
}
