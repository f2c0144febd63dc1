package reconcile

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/repository/memstore"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func id(v int64) *int64 { return &v }

func TestBuildConsistentDataPlansNothing(t *testing.T) {
	orders := []domain.Order{
		{ID: 1, Status: domain.OrderCompleted, TotalPrice: d("100")},
		{ID: 2, Status: domain.OrderPending, TotalPrice: d("50")},
	}
	earnings := []domain.Earning{
		{ID: 10, OrderID: id(1), GrossAmount: d("100"), Status: domain.EarningUnpaid},
		{ID: 11, GrossAmount: d("999"), Status: domain.EarningPaid, IsLegacy: true},
	}
	if plan := Build(orders, earnings); len(plan.Actions) != 0 {
		t.Fatalf("expected an empty plan, got %+v", plan.Actions)
	}
}

func TestBuildPlansEveryRepair(t *testing.T) {
	orders := []domain.Order{
		{ID: 1, Status: domain.OrderCompleted, TotalPrice: d("100")},
		{ID: 2, Status: domain.OrderCompleted, TotalPrice: d("200")},
		{ID: 3, Status: domain.OrderCompleted, TotalPrice: d("300")},
		{ID: 4, Status: domain.OrderCancelled, TotalPrice: d("400")},
		{ID: 5, Status: domain.OrderCompleted, TotalPrice: d("500")},
	}
	earnings := []domain.Earning{
		// order 1 has none
		{ID: 20, OrderID: id(2), GrossAmount: d("200"), Status: domain.EarningUnpaid},
		{ID: 21, OrderID: id(2), GrossAmount: d("200"), Status: domain.EarningPaid},
		{ID: 22, OrderID: id(2), GrossAmount: d("200"), Status: domain.EarningPaid},
		{ID: 30, OrderID: id(3), GrossAmount: d("250"), Status: domain.EarningUnpaid},
		{ID: 40, OrderID: id(4), GrossAmount: d("400"), Status: domain.EarningUnpaid},
		{ID: 41, OrderID: id(99), GrossAmount: d("10"), Status: domain.EarningPaid},
		{ID: 50, OrderID: id(5), GrossAmount: d("500"), Status: domain.EarningPaid},
		{ID: 60, GrossAmount: d("70"), Status: domain.EarningUnpaid},
	}
	plan := Build(orders, earnings)
	want := map[Kind]int{
		CreateMissing:   1,
		DeleteDuplicate: 1,
		PaidDuplicate:   1,
		ResyncGross:     1,
		DeletePhantom:   2,
		FlagLegacy:      1,
	}
	for kind, n := range want {
		if got := plan.Count(kind); got != n {
			t.Fatalf("%s: expected %d actions, got %d (%+v)", kind, n, got, plan.Actions)
		}
	}
	if plan.Changes() != 6 {
		t.Fatalf("expected 6 mutating actions, got %d", plan.Changes())
	}
	for _, a := range plan.Actions {
		if a.Kind == DeleteDuplicate && a.EarningID != 20 {
			t.Fatalf("the unpaid duplicate must go, got earning %d", a.EarningID)
		}
		if a.Kind == PaidDuplicate && a.EarningID != 22 {
			t.Fatalf("the oldest paid earning is kept, got report for %d", a.EarningID)
		}
		if a.Kind == ResyncGross && !a.Amount.Equal(d("300")) {
			t.Fatalf("resync must use the order total, got %s", a.Amount)
		}
	}
}

func TestRunIsIdempotentAndAudited(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	client, _ := store.CreateClient(ctx, domain.Client{ClientCode: "ACME", Name: "Acme"})
	orderDate := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)
	missing, _ := store.CreateOrder(ctx, domain.Order{ClientID: client.ID, Title: "a", TotalPrice: d("120"), OrderDate: orderDate, Status: domain.OrderCompleted})
	drifted, _ := store.CreateOrder(ctx, domain.Order{ClientID: client.ID, Title: "b", TotalPrice: d("80"), OrderDate: orderDate, Status: domain.OrderCompleted})
	if _, err := store.CreateEarning(ctx, domain.Earning{OrderID: &drifted.ID, ClientID: client.ID, Month: "2025-02", GrossAmount: d("60"), Status: domain.EarningUnpaid}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.CreateEarning(ctx, domain.Earning{ClientID: client.ID, Month: "2025-01", GrossAmount: d("15"), Status: domain.EarningUnpaid}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	r := Reconciler{Orders: store, Earnings: store, Audit: store}
	dry, err := r.Run(ctx, nil, true)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.Plan.Changes() != 3 || len(dry.Applied) != 0 {
		t.Fatalf("dry run must only plan, got %+v", dry)
	}
	if _, total, _ := store.ListEarnings(ctx, ports.EarningFilter{}); total != 2 {
		t.Fatalf("dry run must not write, got %d earnings", total)
	}

	report, err := r.Run(ctx, nil, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Applied) != 3 || report.Failed != 0 {
		t.Fatalf("expected 3 applied actions, got %+v", report.Applied)
	}
	e, err := store.GetEarningByOrder(ctx, missing.ID)
	if err != nil || !e.GrossAmount.Equal(d("120")) || e.Month != "2025-02" || !e.ConversionRate.IsZero() {
		t.Fatalf("unexpected created earning %+v (%v)", e, err)
	}
	e, _ = store.GetEarningByOrder(ctx, drifted.ID)
	if !e.GrossAmount.Equal(d("80")) {
		t.Fatalf("expected resynced gross 80, got %s", e.GrossAmount)
	}
	logs, _, _ := store.ListAuditLogs(ctx, ports.AuditFilter{Entity: "earning"})
	if len(logs) != 3 {
		t.Fatalf("expected one audit row per action, got %d", len(logs))
	}

	again, err := r.Run(ctx, nil, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if again.Plan.Changes() != 0 {
		t.Fatalf("second run must plan nothing, got %+v", again.Plan.Actions)
	}
}

type failingAudit struct{ ports.AuditStore }

func (failingAudit) CreateAuditLog(context.Context, domain.AuditLog) error {
	return errors.New("audit table unavailable")
}

func TestRunLogsAuditFailures(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	client, _ := store.CreateClient(ctx, domain.Client{ClientCode: "ACME", Name: "Acme"})
	order, _ := store.CreateOrder(ctx, domain.Order{ClientID: client.ID, Title: "a", TotalPrice: d("50"),
		OrderDate: time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), Status: domain.OrderCompleted})

	var buf bytes.Buffer
	r := Reconciler{Orders: store, Earnings: store, Audit: failingAudit{}, Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	report, err := r.Run(ctx, nil, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Failed != 0 || len(report.Applied) != 1 {
		t.Fatalf("a failed audit write must not fail the repair, got %+v", report)
	}
	if _, err := store.GetEarningByOrder(ctx, order.ID); err != nil {
		t.Fatalf("earning must still be created: %v", err)
	}
	if out := buf.String(); !strings.Contains(out, "audit log write failed") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("expected a warning, got %q", out)
	}
}
