package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type ExpenseService struct {
	Expenses ports.ExpenseStore
	Audit    Auditor
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

type CreateExpenseInput struct {
	Title      string
	Category   string
	BranchID   *int64
	Amount     decimal.Decimal
	PaidAmount decimal.Decimal
	Date       string
	Status     domain.ExpenseStatus
	Note       string
}

// expenseStatus derives the status from the paid share when none was given.
func expenseStatus(status domain.ExpenseStatus, amount, paid decimal.Decimal) (domain.ExpenseStatus, error) {
	if paid.IsNegative() {
		return "", apperr.Field("paidAmount", "must not be negative")
	}
	if paid.GreaterThan(amount) {
		return "", apperr.Field("paidAmount", "must not exceed the amount")
	}
	if status == "" {
		switch {
		case paid.IsZero():
			return domain.ExpensePending, nil
		case paid.Equal(amount):
			return domain.ExpensePaid, nil
		default:
			return domain.ExpensePartialPaid, nil
		}
	}
	if !status.Valid() {
		return "", apperr.Field("status", "must be one of pending, paid, partial_paid")
	}
	return status, nil
}

func (s ExpenseService) Create(ctx context.Context, actor Actor, in CreateExpenseInput) (*domain.Expense, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Field("title", "is required")
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	status, err := expenseStatus(in.Status, in.Amount, in.PaidAmount)
	if err != nil {
		return nil, err
	}
	day := domain.DateOf(nowFrom(s.Now), locationOrUTC(s.Location))
	if in.Date != "" {
		if day, err = parseDate("date", in.Date); err != nil {
			return nil, err
		}
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = "general"
	}
	e, err := s.Expenses.CreateExpense(ctx, domain.Expense{
		Title:      strings.TrimSpace(in.Title),
		Category:   category,
		BranchID:   in.BranchID,
		Amount:     domain.Round2(in.Amount),
		PaidAmount: domain.Round2(in.PaidAmount),
		Date:       day,
		Status:     status,
		Note:       in.Note,
		CreatedBy:  actor.ref(),
	})
	if err != nil {
		return nil, storeErr(err, "expense")
	}
	s.Audit.Record(ctx, actor, "expense.create", "expense", e.ID, "%s %s", e.Title, e.Amount.StringFixed(2))
	return e, nil
}

type ExpenseQuery struct {
	Month    string
	BranchID *int64
	Category string
	Status   domain.ExpenseStatus
	ports.Page
}

func (q ExpenseQuery) filter() (ports.ExpenseFilter, error) {
	f := ports.ExpenseFilter{BranchID: q.BranchID, Category: q.Category, Status: q.Status, Page: q.Page}
	if q.Month != "" {
		m, err := parseMonth(q.Month)
		if err != nil {
			return f, err
		}
		from, to := m.FirstDay(), m.NextFirstDay()
		f.From, f.To = &from, &to
	}
	if q.Status != "" && !q.Status.Valid() {
		return f, apperr.Field("status", "must be one of pending, paid, partial_paid")
	}
	return f, nil
}

func (s ExpenseService) List(ctx context.Context, q ExpenseQuery) ([]domain.Expense, int, error) {
	f, err := q.filter()
	if err != nil {
		return nil, 0, err
	}
	items, total, err := s.Expenses.ListExpenses(ctx, f)
	if err != nil {
		return nil, 0, storeErr(err, "expense")
	}
	if items == nil {
		items = []domain.Expense{}
	}
	return items, total, nil
}

func (s ExpenseService) UpdatePayment(ctx context.Context, actor Actor, id int64, status domain.ExpenseStatus, paid decimal.Decimal) (*domain.Expense, error) {
	e, err := s.Expenses.GetExpense(ctx, id)
	if err != nil {
		return nil, storeErr(err, "expense")
	}
	status, err = expenseStatus(status, e.Amount, paid)
	if err != nil {
		return nil, err
	}
	updated, err := s.Expenses.UpdateExpensePayment(ctx, id, status, domain.Round2(paid))
	if err != nil {
		return nil, storeErr(err, "expense")
	}
	s.Audit.Record(ctx, actor, "expense.payment", "expense", id, "%s, paid %s", status, paid.StringFixed(2))
	return updated, nil
}

func (s ExpenseService) Delete(ctx context.Context, actor Actor, id int64) error {
	if err := s.Expenses.DeleteExpense(ctx, id); err != nil {
		return storeErr(err, "expense")
	}
	s.Audit.Record(ctx, actor, "expense.delete", "expense", id, "expense deleted")
	return nil
}

type CategoryTotal struct {
	Category string          `json:"category"`
	Count    int             `json:"count"`
	Amount   decimal.Decimal `json:"amount"`
	Paid     decimal.Decimal `json:"paid"`
}

type ExpenseSummary struct {
	Total       decimal.Decimal `json:"total"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Categories  []CategoryTotal `json:"categories"`
}

func (s ExpenseService) Summary(ctx context.Context, q ExpenseQuery) (*ExpenseSummary, error) {
	q.Page = ports.Page{}
	items, _, err := s.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return summarizeExpenses(items), nil
}

func summarizeExpenses(items []domain.Expense) *ExpenseSummary {
	out := &ExpenseSummary{Categories: []CategoryTotal{}}
	byCategory := map[string]*CategoryTotal{}
	for _, e := range items {
		out.Total = out.Total.Add(e.Amount)
		out.Paid = out.Paid.Add(e.PaidAmount)
		c := byCategory[e.Category]
		if c == nil {
			c = &CategoryTotal{Category: e.Category}
			byCategory[e.Category] = c
		}
		c.Count++
		c.Amount = c.Amount.Add(e.Amount)
		c.Paid = c.Paid.Add(e.PaidAmount)
	}
	for _, c := range byCategory {
		out.Categories = append(out.Categories, *c)
	}
	sort.Slice(out.Categories, func(i, j int) bool { return out.Categories[i].Category < out.Categories[j].Category })
	out.Outstanding = out.Total.Sub(out.Paid)
	return out
}
