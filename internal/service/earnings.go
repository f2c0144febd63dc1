package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type EarningService struct {
	Earnings ports.EarningStore
	Audit    Auditor
	Logger   *slog.Logger
	Now      func() time.Time
}

func (s EarningService) List(ctx context.Context, f ports.EarningFilter) ([]domain.Earning, int, error) {
	if f.Month != "" {
		if _, err := parseMonth(f.Month); err != nil {
			return nil, 0, err
		}
	}
	if f.Status != "" && f.Status != domain.EarningPaid && f.Status != domain.EarningUnpaid {
		return nil, 0, apperr.Field("status", "must be paid or unpaid")
	}
	items, total, err := s.Earnings.ListEarnings(ctx, f)
	if err != nil {
		return nil, 0, storeErr(err, "earning")
	}
	if items == nil {
		items = []domain.Earning{}
	}
	return items, total, nil
}

type ClientEarnings struct {
	ClientID   int64           `json:"clientId"`
	ClientName string          `json:"clientName"`
	Count      int             `json:"count"`
	Gross      decimal.Decimal `json:"gross"`
	PaidBDT    decimal.Decimal `json:"paidBdt"`
}

type MonthlyEarnings struct {
	Month   string          `json:"month"`
	Gross   decimal.Decimal `json:"gross"`
	PaidBDT decimal.Decimal `json:"paidBdt"`
}

type EarningStats struct {
	TotalGross   decimal.Decimal   `json:"totalGross"`
	TotalPaidBDT decimal.Decimal   `json:"totalPaidBdt"`
	UnpaidGross  decimal.Decimal   `json:"unpaidGross"`
	PaidCount    int               `json:"paidCount"`
	UnpaidCount  int               `json:"unpaidCount"`
	LegacyCount  int               `json:"legacyCount"`
	ByClient     []ClientEarnings  `json:"byClient"`
	Monthly      []MonthlyEarnings `json:"monthly"`
}

// Stats aggregates earnings per client and per month; year 0 covers every month.
func (s EarningService) Stats(ctx context.Context, year int) (*EarningStats, error) {
	items, _, err := s.Earnings.ListEarnings(ctx, ports.EarningFilter{})
	if err != nil {
		return nil, storeErr(err, "earning")
	}
	return buildEarningStats(items, year), nil
}

func buildEarningStats(items []domain.Earning, year int) *EarningStats {
	stats := &EarningStats{ByClient: []ClientEarnings{}, Monthly: []MonthlyEarnings{}}
	clients := map[int64]*ClientEarnings{}
	months := map[string]*MonthlyEarnings{}
	for _, e := range items {
		if year != 0 {
			m, err := domain.ParseMonth(e.Month)
			if err != nil || m.Year != year {
				continue
			}
		}
		stats.TotalGross = stats.TotalGross.Add(e.GrossAmount)
		if e.IsLegacy {
			stats.LegacyCount++
		}
		c := clients[e.ClientID]
		if c == nil {
			c = &ClientEarnings{ClientID: e.ClientID, ClientName: e.ClientName}
			clients[e.ClientID] = c
		}
		m := months[e.Month]
		if m == nil {
			m = &MonthlyEarnings{Month: e.Month}
			months[e.Month] = m
		}
		c.Count++
		c.Gross = c.Gross.Add(e.GrossAmount)
		m.Gross = m.Gross.Add(e.GrossAmount)
		if e.Status == domain.EarningPaid {
			stats.PaidCount++
			stats.TotalPaidBDT = stats.TotalPaidBDT.Add(e.AmountInBDT)
			c.PaidBDT = c.PaidBDT.Add(e.AmountInBDT)
			m.PaidBDT = m.PaidBDT.Add(e.AmountInBDT)
		} else {
			stats.UnpaidCount++
			stats.UnpaidGross = stats.UnpaidGross.Add(e.GrossAmount)
		}
	}
	for _, c := range clients {
		stats.ByClient = append(stats.ByClient, *c)
	}
	sort.Slice(stats.ByClient, func(i, j int) bool {
		if !stats.ByClient[i].Gross.Equal(stats.ByClient[j].Gross) {
			return stats.ByClient[i].Gross.GreaterThan(stats.ByClient[j].Gross)
		}
		return stats.ByClient[i].ClientID < stats.ByClient[j].ClientID
	})
	for _, m := range months {
		stats.Monthly = append(stats.Monthly, *m)
	}
	sort.Slice(stats.Monthly, func(i, j int) bool { return stats.Monthly[i].Month < stats.Monthly[j].Month })
	return stats
}

type WithdrawInput struct {
	Fees           decimal.Decimal
	Tax            decimal.Decimal
	ConversionRate decimal.Decimal
	Notes          string
}

// Withdraw records the payout of an unpaid earning. It succeeds once.
func (s EarningService) Withdraw(ctx context.Context, actor Actor, id int64, in WithdrawInput) (*domain.Earning, error) {
	if err := requireNonNegative("fees", in.Fees); err != nil {
		return nil, err
	}
	if err := requireNonNegative("tax", in.Tax); err != nil {
		return nil, err
	}
	if err := requirePositive("conversionRate", in.ConversionRate); err != nil {
		return nil, err
	}
	e, err := s.Earnings.GetEarning(ctx, id)
	if err != nil {
		return nil, storeErr(err, "earning")
	}
	if e.Status == domain.EarningPaid {
		return nil, apperr.Conflict("earning was already withdrawn")
	}
	net := e.GrossAmount.Sub(in.Fees).Sub(in.Tax)
	if net.IsNegative() {
		return nil, apperr.Validation("fees and tax exceed the gross amount", map[string]string{"fees": "fees and tax exceed the gross amount"})
	}

	paidAt := nowFrom(s.Now)
	e.Fees = domain.Round2(in.Fees)
	e.Tax = domain.Round2(in.Tax)
	e.ConversionRate = in.ConversionRate
	e.NetAmount = domain.Round2(net)
	e.AmountInBDT = domain.Round2(net.Mul(in.ConversionRate))
	e.PaidAt = &paidAt
	e.PaidBy = actor.ref()
	e.Notes = in.Notes

	paid, err := s.Earnings.MarkEarningPaid(ctx, *e)
	if errors.Is(err, ports.ErrStateChanged) {
		return nil, apperr.Conflict("earning was already withdrawn")
	}
	if err != nil {
		return nil, storeErr(err, "earning")
	}
	loggerOrDefault(s.Logger).InfoContext(ctx, "earning withdrawn", "earning_id", id, "amount_bdt", paid.AmountInBDT.StringFixed(2))
	s.Audit.Record(ctx, actor, "earning.withdraw", "earning", id, "withdrawn net %s at rate %s = %s BDT",
		paid.NetAmount.StringFixed(2), paid.ConversionRate.String(), paid.AmountInBDT.StringFixed(2))
	return paid, nil
}

// Revert returns a paid earning to unpaid, clearing its payout fields.
func (s EarningService) Revert(ctx context.Context, actor Actor, id int64) (*domain.Earning, error) {
	if _, err := s.Earnings.GetEarning(ctx, id); err != nil {
		return nil, storeErr(err, "earning")
	}
	e, err := s.Earnings.MarkEarningUnpaid(ctx, id)
	if errors.Is(err, ports.ErrStateChanged) {
		return nil, apperr.Conflict("earning is not paid")
	}
	if err != nil {
		return nil, storeErr(err, "earning")
	}
	s.Audit.Record(ctx, actor, "earning.revert", "earning", id, "earning reverted to unpaid")
	return e, nil
}
