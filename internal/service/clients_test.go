package service

import (
	"context"
	"reflect"
	"testing"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/repository/memstore"
)

func newClientService(store *memstore.Store) ClientService {
	return ClientService{
		Clients:  store,
		Orders:   store,
		Earnings: store,
		Audit:    Auditor{Store: store},
		Logger:   discardLogger(),
		Now:      fixedClock(testNow),
	}
}

func TestSuggestClientCodes(t *testing.T) {
	got := suggestClientCodes("ACME", []string{"ACME", "acme-2", "ACME-4"}, 2025)
	want := []string{"ACME-3", "ACME-5", "ACME-6", "ACME-2025"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	got = suggestClientCodes("ACME", []string{"ACME", "ACME-2025"}, 2025)
	if len(got) != 3 || got[len(got)-1] == "ACME-2025" {
		t.Fatalf("taken year suffix must not be suggested, got %v", got)
	}
}

func TestCreateClientConflictSuggestions(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newClientService(store)
	if _, err := svc.CreateClient(ctx, admin, CreateClientInput{ClientCode: "acme", Name: "Acme"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.CreateClient(ctx, admin, CreateClientInput{ClientCode: "ACME-2", Name: "Acme Two"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := svc.CreateClient(ctx, admin, CreateClientInput{ClientCode: "Acme", Name: "Other"})
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(e.Suggestions) == 0 {
		t.Fatalf("expected suggestions")
	}
	for _, code := range e.Suggestions {
		if _, err := svc.CreateClient(ctx, admin, CreateClientInput{ClientCode: code, Name: code}); err != nil {
			t.Fatalf("suggested code %s must be free: %v", code, err)
		}
	}
}

func TestCompletedOrderOwnsOneEarning(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	svc := newClientService(store)
	c, _ := svc.CreateClient(ctx, admin, CreateClientInput{ClientCode: "GLOBEX", Name: "Globex"})

	o, err := svc.CreateOrder(ctx, admin, CreateOrderInput{ClientID: c.ID, Title: "landing page", TotalPrice: dec(t, "450"), OrderDate: "2025-02-14"})
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if _, err := store.GetEarningByOrder(ctx, o.ID); err == nil {
		t.Fatalf("pending orders have no earning")
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.UpdateOrderStatus(ctx, admin, o.ID, domain.OrderCompleted); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	earnings, total, _ := store.ListEarnings(ctx, ports.EarningFilter{})
	if total != 1 || earnings[0].Month != "2025-02" || !earnings[0].GrossAmount.Equal(dec(t, "450")) {
		t.Fatalf("expected a single earning for the order, got %+v", earnings)
	}

	if _, err := svc.UpdateOrderStatus(ctx, admin, o.ID, domain.OrderCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, total, _ := store.ListEarnings(ctx, ports.EarningFilter{}); total != 0 {
		t.Fatalf("cancelling must drop the unpaid earning")
	}
	if _, err := svc.UpdateOrderStatus(ctx, admin, o.ID, "archived"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
