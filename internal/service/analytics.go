package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/cache"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/metrics"
	"hrdesk-backend/internal/ports"
)

// FinancialSummary is the net position of one period:
// final = earnings - expenses - (transfers + distributions) + (borrowed - returned).
type FinancialSummary struct {
	TotalEarnings      decimal.Decimal `json:"totalEarnings"`
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	TotalTransfers     decimal.Decimal `json:"totalTransfers"`
	TotalDistributions decimal.Decimal `json:"totalDistributions"`
	TotalShared        decimal.Decimal `json:"totalShared"`
	TotalBorrowed      decimal.Decimal `json:"totalBorrowed"`
	TotalReturned      decimal.Decimal `json:"totalReturned"`
	TotalDebit         decimal.Decimal `json:"totalDebit"`
	FinalAmount        decimal.Decimal `json:"finalAmount"`
}

func ComputeFinancialSummary(t domain.LedgerTotals) FinancialSummary {
	s := FinancialSummary{
		TotalEarnings:      domain.Round2(t.Earnings),
		TotalExpenses:      domain.Round2(t.Expenses),
		TotalTransfers:     domain.Round2(t.Transfers),
		TotalDistributions: domain.Round2(t.Distributions),
		TotalBorrowed:      domain.Round2(t.Borrowed),
		TotalReturned:      domain.Round2(t.Returned),
	}
	s.TotalShared = s.TotalTransfers.Add(s.TotalDistributions)
	s.TotalDebit = s.TotalBorrowed.Sub(s.TotalReturned)
	s.FinalAmount = s.TotalEarnings.Sub(s.TotalExpenses).Sub(s.TotalShared).Add(s.TotalDebit)
	return s
}

type StaffCounts struct {
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

type Dashboard struct {
	Period               string            `json:"period"`
	PeriodType           domain.PeriodType `json:"periodType"`
	Summary              FinancialSummary  `json:"summary"`
	Staff                StaffCounts       `json:"staff"`
	PendingOvertime      int               `json:"pendingOvertime"`
	UnpaidEarnings       int               `json:"unpaidEarnings"`
	UnpaidEarningsAmount decimal.Decimal   `json:"unpaidEarningsAmount"`
	GeneratedAt          time.Time         `json:"generatedAt"`
}

type AnalyticsService struct {
	Ledger   ports.LedgerStore
	Staff    ports.StaffStore
	Overtime ports.OvertimeStore
	Earnings ports.EarningStore
	AuditLog ports.AuditStore
	Cache    cache.Cache
	CacheTTL time.Duration
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

// ResolvePeriod parses a month or year period; an empty value means the current one.
func ResolvePeriod(typ domain.PeriodType, value string, now time.Time, loc *time.Location) (domain.Period, error) {
	if typ == "" {
		typ = domain.PeriodMonth
	}
	if value == "" {
		m := domain.MonthOf(now, locationOrUTC(loc))
		if typ == domain.PeriodYear {
			return domain.Period{Type: domain.PeriodYear, Year: m.Year}, nil
		}
		if typ == domain.PeriodMonth {
			return domain.MonthPeriod(m), nil
		}
	}
	p, err := domain.ParsePeriod(typ, value)
	if err != nil {
		return domain.Period{}, apperr.Field("period", err.Error())
	}
	return p, nil
}

func ledgerRange(p domain.Period, loc *time.Location) ports.LedgerRange {
	var r ports.LedgerRange
	r.DateFrom, r.DateTo = p.DateRange()
	r.From, r.To = p.Bounds(locationOrUTC(loc))
	return r
}

// Summary reads the four ledgers of the period from one snapshot.
func (s AnalyticsService) Summary(ctx context.Context, p domain.Period) (FinancialSummary, error) {
	totals, err := s.Ledger.LedgerTotals(ctx, ledgerRange(p, s.Location))
	if err != nil {
		return FinancialSummary{}, storeErr(err, "ledger")
	}
	return ComputeFinancialSummary(totals), nil
}

func (s AnalyticsService) Dashboard(ctx context.Context, typ domain.PeriodType, value string) (*Dashboard, error) {
	now := nowFrom(s.Now)
	p, err := ResolvePeriod(typ, value, now, s.Location)
	if err != nil {
		return nil, err
	}
	log := loggerOrDefault(s.Logger)
	key := "dashboard:" + string(p.Type) + ":" + p.String()
	c := s.Cache
	if c == nil {
		c = cache.Noop{}
	}

	if raw, ok, err := c.Get(ctx, key); err != nil {
		log.WarnContext(ctx, "dashboard cache read failed", "key", key, "error", err)
	} else if ok {
		var d Dashboard
		if err := json.Unmarshal(raw, &d); err == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return &d, nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	summary, err := s.Summary(ctx, p)
	if err != nil {
		return nil, err
	}
	counts, err := s.Staff.CountStaffByStatus(ctx)
	if err != nil {
		return nil, storeErr(err, "staff")
	}
	pending, err := s.Overtime.ListOvertime(ctx, ports.OvertimeFilter{Status: domain.OvertimePending})
	if err != nil {
		return nil, storeErr(err, "overtime")
	}
	unpaid, total, err := s.Earnings.ListEarnings(ctx, ports.EarningFilter{Status: domain.EarningUnpaid})
	if err != nil {
		return nil, storeErr(err, "earning")
	}
	unpaidAmount := decimal.Zero
	for _, e := range unpaid {
		unpaidAmount = unpaidAmount.Add(e.GrossAmount)
	}

	d := &Dashboard{
		Period:               p.String(),
		PeriodType:           p.Type,
		Summary:              summary,
		Staff:                StaffCounts{Active: counts[domain.StaffActive], Inactive: counts[domain.StaffInactive]},
		PendingOvertime:      len(pending),
		UnpaidEarnings:       total,
		UnpaidEarningsAmount: domain.Round2(unpaidAmount),
		GeneratedAt:          now,
	}
	if raw, err := json.Marshal(d); err == nil {
		if err := c.Set(ctx, key, raw, s.CacheTTL); err != nil {
			log.WarnContext(ctx, "dashboard cache write failed", "key", key, "error", err)
		}
	}
	return d, nil
}

func (s AnalyticsService) AuditLogs(ctx context.Context, f ports.AuditFilter) ([]domain.AuditLog, int, error) {
	logs, total, err := s.AuditLog.ListAuditLogs(ctx, f)
	if err != nil {
		return nil, 0, storeErr(err, "audit log")
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	return logs, total, nil
}

func (s AnalyticsService) SalaryHistory(ctx context.Context, staffID int64) ([]domain.SalaryHistory, error) {
	if _, err := s.Staff.GetStaff(ctx, staffID); err != nil {
		return nil, storeErr(err, "staff")
	}
	history, err := s.Staff.ListSalaryHistory(ctx, staffID)
	if err != nil {
		return nil, storeErr(err, "salary history")
	}
	if history == nil {
		history = []domain.SalaryHistory{}
	}
	return history, nil
}
