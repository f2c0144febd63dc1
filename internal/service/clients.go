package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

const maxCodeSuggestions = 3

type ClientService struct {
	Clients  ports.ClientStore
	Orders   ports.OrderStore
	Earnings ports.EarningStore
	Audit    Auditor
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

type CreateClientInput struct {
	ClientCode string
	Name       string
	Email      string
	Country    string
	Currency   string
}

func (s ClientService) CreateClient(ctx context.Context, actor Actor, in CreateClientInput) (*domain.Client, error) {
	in.ClientCode = strings.ToUpper(strings.TrimSpace(in.ClientCode))
	fields := map[string]string{}
	if in.ClientCode == "" {
		fields["clientCode"] = "is required"
	}
	if strings.TrimSpace(in.Name) == "" {
		fields["name"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("invalid client", fields)
	}
	if in.Currency == "" {
		in.Currency = "USD"
	}
	c, err := s.Clients.CreateClient(ctx, domain.Client{
		ClientCode: in.ClientCode,
		Name:       strings.TrimSpace(in.Name),
		Email:      in.Email,
		Country:    in.Country,
		Currency:   strings.ToUpper(in.Currency),
	})
	if errors.Is(err, ports.ErrDuplicate) {
		taken, lookupErr := s.Clients.ClientCodesWithPrefix(ctx, in.ClientCode)
		if lookupErr != nil {
			return nil, storeErr(lookupErr, "client")
		}
		year := domain.MonthOf(nowFrom(s.Now), locationOrUTC(s.Location)).Year
		return nil, apperr.IDConflict(
			fmt.Sprintf("client id %s is already taken", in.ClientCode),
			suggestClientCodes(in.ClientCode, taken, year),
		)
	}
	if err != nil {
		return nil, storeErr(err, "client")
	}
	s.Audit.Record(ctx, actor, "client.create", "client", c.ID, "client %s created", c.ClientCode)
	return c, nil
}

// suggestClientCodes proposes free alternatives: CODE-2, CODE-3, ... and CODE-<year>.
func suggestClientCodes(code string, taken []string, year int) []string {
	used := make(map[string]bool, len(taken)+1)
	used[strings.ToUpper(code)] = true
	for _, t := range taken {
		used[strings.ToUpper(t)] = true
	}
	var out []string
	for n := 2; len(out) < maxCodeSuggestions && n < 100; n++ {
		candidate := fmt.Sprintf("%s-%d", code, n)
		if !used[candidate] {
			out = append(out, candidate)
		}
	}
	if withYear := fmt.Sprintf("%s-%d", code, year); !used[withYear] {
		out = append(out, withYear)
	}
	return out
}

func (s ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	clients, err := s.Clients.ListClients(ctx)
	if err != nil {
		return nil, storeErr(err, "client")
	}
	return clients, nil
}

func (s ClientService) GetClient(ctx context.Context, id int64) (*domain.Client, error) {
	c, err := s.Clients.GetClient(ctx, id)
	if err != nil {
		return nil, storeErr(err, "client")
	}
	return c, nil
}

type CreateOrderInput struct {
	ClientID   int64
	Title      string
	TotalPrice decimal.Decimal
	OrderDate  string
	Status     domain.OrderStatus
}

func (s ClientService) CreateOrder(ctx context.Context, actor Actor, in CreateOrderInput) (*domain.Order, error) {
	if in.ClientID <= 0 {
		return nil, apperr.Field("clientId", "is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Field("title", "is required")
	}
	if err := requirePositive("totalPrice", in.TotalPrice); err != nil {
		return nil, err
	}
	orderDate := domain.DateOf(nowFrom(s.Now), locationOrUTC(s.Location))
	if in.OrderDate != "" {
		d, err := parseDate("orderDate", in.OrderDate)
		if err != nil {
			return nil, err
		}
		orderDate = d
	}
	if in.Status == "" {
		in.Status = domain.OrderPending
	}
	if !in.Status.Valid() {
		return nil, apperr.Field("status", "must be one of pending, in_progress, completed, cancelled")
	}
	if _, err := s.Clients.GetClient(ctx, in.ClientID); err != nil {
		return nil, storeErr(err, "client")
	}
	o, err := s.Orders.CreateOrder(ctx, domain.Order{
		ClientID:   in.ClientID,
		Title:      strings.TrimSpace(in.Title),
		TotalPrice: domain.Round2(in.TotalPrice),
		OrderDate:  orderDate,
		Status:     in.Status,
	})
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if o.Status == domain.OrderCompleted {
		if err := s.ensureEarning(ctx, *o); err != nil {
			return nil, err
		}
	}
	s.Audit.Record(ctx, actor, "order.create", "order", o.ID, "order %q created as %s", o.Title, o.Status)
	return o, nil
}

func (s ClientService) ListOrders(ctx context.Context, f ports.OrderFilter) ([]domain.Order, error) {
	orders, err := s.Orders.ListOrders(ctx, f)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdateOrderStatus keeps the earnings ledger in step: a completed order owns exactly one
// earning and cancelling drops it while it is still unpaid.
func (s ClientService) UpdateOrderStatus(ctx context.Context, actor Actor, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, apperr.Field("status", "must be one of pending, in_progress, completed, cancelled")
	}
	prev, err := s.Orders.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	o, err := s.Orders.SetOrderStatus(ctx, id, status)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	switch status {
	case domain.OrderCompleted:
		if err := s.ensureEarning(ctx, *o); err != nil {
			return nil, err
		}
	case domain.OrderCancelled:
		if err := s.dropUnpaidEarning(ctx, *o); err != nil {
			return nil, err
		}
	}
	s.Audit.Record(ctx, actor, "order.status", "order", id, "status %s -> %s", prev.Status, status)
	return o, nil
}

func (s ClientService) ensureEarning(ctx context.Context, o domain.Order) error {
	if _, err := s.Earnings.GetEarningByOrder(ctx, o.ID); err == nil {
		return nil
	} else if !errors.Is(err, ports.ErrNotFound) {
		return storeErr(err, "earning")
	}
	_, err := s.Earnings.CreateEarning(ctx, domain.EarningForOrder(o))
	if err != nil && !errors.Is(err, ports.ErrDuplicate) {
		return storeErr(err, "earning")
	}
	return nil
}

func (s ClientService) dropUnpaidEarning(ctx context.Context, o domain.Order) error {
	e, err := s.Earnings.GetEarningByOrder(ctx, o.ID)
	if errors.Is(err, ports.ErrNotFound) {
		return nil
	}
	if err != nil {
		return storeErr(err, "earning")
	}
	if e.Status == domain.EarningPaid {
		loggerOrDefault(s.Logger).WarnContext(ctx, "cancelled order keeps its paid earning", "order_id", o.ID, "earning_id", e.ID)
		return nil
	}
	if err := s.Earnings.DeleteEarning(ctx, e.ID); err != nil && !errors.Is(err, ports.ErrNotFound) {
		return storeErr(err, "earning")
	}
	return nil
}
