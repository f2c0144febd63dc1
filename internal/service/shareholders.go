package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

var hundred = decimal.NewFromInt(100)

type ShareholderService struct {
	Shareholders ports.ShareholderStore
	Ledger       ports.LedgerStore
	Audit        Auditor
	Logger       *slog.Logger
	Location     *time.Location
	Now          func() time.Time
}

type ShareholderInput struct {
	Name       string
	Email      string
	Percentage decimal.Decimal
	Active     *bool
}

func (s ShareholderService) Create(ctx context.Context, actor Actor, in ShareholderInput) (*domain.Shareholder, error) {
	sh := domain.Shareholder{Name: strings.TrimSpace(in.Name), Email: in.Email, Percentage: in.Percentage, Active: true}
	if in.Active != nil {
		sh.Active = *in.Active
	}
	if err := s.checkShareholder(ctx, sh); err != nil {
		return nil, err
	}
	created, err := s.Shareholders.CreateShareholder(ctx, sh)
	if err != nil {
		return nil, storeErr(err, "shareholder")
	}
	s.Audit.Record(ctx, actor, "shareholder.create", "shareholder", created.ID, "%s holds %s%%", created.Name, created.Percentage.String())
	return created, nil
}

func (s ShareholderService) Update(ctx context.Context, actor Actor, id int64, in ShareholderInput) (*domain.Shareholder, error) {
	existing, err := s.Shareholders.GetShareholder(ctx, id)
	if err != nil {
		return nil, storeErr(err, "shareholder")
	}
	sh := *existing
	if name := strings.TrimSpace(in.Name); name != "" {
		sh.Name = name
	}
	if in.Email != "" {
		sh.Email = in.Email
	}
	if !in.Percentage.IsZero() {
		sh.Percentage = in.Percentage
	}
	if in.Active != nil {
		sh.Active = *in.Active
	}
	if err := s.checkShareholder(ctx, sh); err != nil {
		return nil, err
	}
	updated, err := s.Shareholders.UpdateShareholder(ctx, sh)
	if err != nil {
		return nil, storeErr(err, "shareholder")
	}
	s.Audit.Record(ctx, actor, "shareholder.update", "shareholder", id, "%s holds %s%% (active=%t)", updated.Name, updated.Percentage.String(), updated.Active)
	return updated, nil
}

// checkShareholder rejects a change that would push active percentages above 100.
func (s ShareholderService) checkShareholder(ctx context.Context, sh domain.Shareholder) error {
	if sh.Name == "" {
		return apperr.Field("name", "is required")
	}
	if !sh.Percentage.IsPositive() || sh.Percentage.GreaterThan(hundred) {
		return apperr.Field("percentage", "must be greater than 0 and at most 100")
	}
	if !sh.Active {
		return nil
	}
	active, err := s.Shareholders.ListShareholders(ctx, true)
	if err != nil {
		return storeErr(err, "shareholder")
	}
	total := sh.Percentage
	for _, other := range active {
		if other.ID != sh.ID {
			total = total.Add(other.Percentage)
		}
	}
	if total.GreaterThan(hundred) {
		return apperr.Conflict("active shareholder percentages would total %s%%, above 100%%", total.String())
	}
	return nil
}

func (s ShareholderService) List(ctx context.Context, activeOnly bool) ([]domain.Shareholder, error) {
	items, err := s.Shareholders.ListShareholders(ctx, activeOnly)
	if err != nil {
		return nil, storeErr(err, "shareholder")
	}
	if items == nil {
		items = []domain.Shareholder{}
	}
	return items, nil
}

// DistributableProfit is earnings minus expenses minus transfers of the period.
func DistributableProfit(t domain.LedgerTotals) decimal.Decimal {
	return domain.Round2(t.Earnings.Sub(t.Expenses).Sub(t.Transfers))
}

// Distribute snapshots each active shareholder's share of the period profit.
// A period is distributed at most once.
func (s ShareholderService) Distribute(ctx context.Context, actor Actor, typ domain.PeriodType, value string, amount *decimal.Decimal) ([]domain.ProfitDistribution, error) {
	if value == "" {
		return nil, apperr.Field("period", "is required")
	}
	p, err := ResolvePeriod(typ, value, nowFrom(s.Now), s.Location)
	if err != nil {
		return nil, err
	}
	var profit decimal.Decimal
	if amount != nil {
		profit = domain.Round2(*amount)
	} else {
		totals, err := s.Ledger.LedgerTotals(ctx, ledgerRange(p, s.Location))
		if err != nil {
			return nil, storeErr(err, "ledger")
		}
		profit = DistributableProfit(totals)
	}
	if !profit.IsPositive() {
		return nil, apperr.Conflict("no distributable profit for %s (%s)", p, profit.StringFixed(2))
	}

	holders, err := s.Shareholders.ListShareholders(ctx, true)
	if err != nil {
		return nil, storeErr(err, "shareholder")
	}
	if len(holders) == 0 {
		return nil, apperr.Conflict("there are no active shareholders")
	}
	at := nowFrom(s.Now)
	rows := make([]domain.ProfitDistribution, 0, len(holders))
	for _, h := range holders {
		rows = append(rows, domain.ProfitDistribution{
			ShareholderID: h.ID,
			Shareholder:   h.Name,
			Period:        p,
			NetProfit:     profit,
			Percentage:    h.Percentage,
			ShareAmount:   domain.PercentOf(profit, h.Percentage),
			DistributedAt: at,
			DistributedBy: actor.ref(),
		})
	}
	saved, err := s.Shareholders.CreateDistributions(ctx, rows)
	if errors.Is(err, ports.ErrDuplicate) {
		return nil, apperr.Conflict("profit for %s was already distributed", p)
	}
	if err != nil {
		return nil, storeErr(err, "distribution")
	}
	loggerOrDefault(s.Logger).InfoContext(ctx, "profit distributed", "period", p.String(), "profit", profit.StringFixed(2), "shareholders", len(saved))
	s.Audit.Record(ctx, actor, "profit.distribute", "distribution", saved[0].ID, "distributed %s of %s among %d shareholders", profit.StringFixed(2), p, len(saved))
	return saved, nil
}

func (s ShareholderService) ListDistributions(ctx context.Context, periodKey string) ([]domain.ProfitDistribution, error) {
	var filter *domain.Period
	if periodKey != "" {
		p, err := domain.ParsePeriodKey(periodKey)
		if err != nil {
			return nil, apperr.Field("period", err.Error())
		}
		filter = &p
	}
	items, err := s.Shareholders.ListDistributions(ctx, filter)
	if err != nil {
		return nil, storeErr(err, "distribution")
	}
	if items == nil {
		items = []domain.ProfitDistribution{}
	}
	return items, nil
}
