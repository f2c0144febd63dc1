package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type DebitService struct {
	Debits   ports.DebitStore
	Audit    Auditor
	Logger   *slog.Logger
	Location *time.Location
	Now      func() time.Time
}

func (s DebitService) CreatePerson(ctx context.Context, actor Actor, name, phone, note string) (*domain.Person, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Field("name", "is required")
	}
	p, err := s.Debits.CreatePerson(ctx, domain.Person{Name: strings.TrimSpace(name), Phone: phone, Note: note})
	if err != nil {
		return nil, storeErr(err, "person")
	}
	s.Audit.Record(ctx, actor, "person.create", "person", p.ID, "person %s created", p.Name)
	return p, nil
}

// ListPersons returns every person with their outstanding balance.
func (s DebitService) ListPersons(ctx context.Context) ([]domain.PersonBalance, error) {
	persons, err := s.Debits.ListPersons(ctx)
	if err != nil {
		return nil, storeErr(err, "person")
	}
	debits, err := s.Debits.ListDebits(ctx, nil)
	if err != nil {
		return nil, storeErr(err, "debit")
	}
	return balances(persons, debits), nil
}

func balances(persons []domain.Person, debits []domain.Debit) []domain.PersonBalance {
	idx := make(map[int64]int, len(persons))
	out := make([]domain.PersonBalance, len(persons))
	for i, p := range persons {
		idx[p.ID] = i
		out[i] = domain.PersonBalance{Person: p, TotalBorrow: decimal.Zero, TotalReturn: decimal.Zero}
	}
	for _, d := range debits {
		i, ok := idx[d.PersonID]
		if !ok {
			continue
		}
		switch d.Type {
		case domain.DebitBorrow:
			out[i].TotalBorrow = out[i].TotalBorrow.Add(d.Amount)
		case domain.DebitReturn:
			out[i].TotalReturn = out[i].TotalReturn.Add(d.Amount)
		}
	}
	return out
}

func (s DebitService) GetPerson(ctx context.Context, id int64) (*domain.PersonBalance, []domain.Debit, error) {
	p, err := s.Debits.GetPerson(ctx, id)
	if err != nil {
		return nil, nil, storeErr(err, "person")
	}
	debits, err := s.Debits.ListDebits(ctx, &id)
	if err != nil {
		return nil, nil, storeErr(err, "debit")
	}
	if debits == nil {
		debits = []domain.Debit{}
	}
	b := balances([]domain.Person{*p}, debits)[0]
	return &b, debits, nil
}

type CreateDebitInput struct {
	PersonID int64
	Type     domain.DebitType
	Amount   decimal.Decimal
	Date     string
	Note     string
}

func (s DebitService) CreateDebit(ctx context.Context, actor Actor, in CreateDebitInput) (*domain.Debit, error) {
	if !in.Type.Valid() {
		return nil, apperr.Field("type", "must be Borrow or Return")
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	day := domain.DateOf(nowFrom(s.Now), locationOrUTC(s.Location))
	if in.Date != "" {
		var err error
		if day, err = parseDate("date", in.Date); err != nil {
			return nil, err
		}
	}
	if _, err := s.Debits.GetPerson(ctx, in.PersonID); err != nil {
		return nil, storeErr(err, "person")
	}
	d, err := s.Debits.CreateDebit(ctx, domain.Debit{
		PersonID:  in.PersonID,
		Type:      in.Type,
		Amount:    domain.Round2(in.Amount),
		Date:      day,
		Note:      in.Note,
		CreatedBy: actor.ref(),
	})
	if err != nil {
		return nil, storeErr(err, "debit")
	}
	s.Audit.Record(ctx, actor, "debit.create", "person", in.PersonID, "%s %s", d.Type, d.Amount.StringFixed(2))
	return d, nil
}

func (s DebitService) DeleteDebit(ctx context.Context, actor Actor, id int64) error {
	if err := s.Debits.DeleteDebit(ctx, id); err != nil {
		return storeErr(err, "debit")
	}
	s.Audit.Record(ctx, actor, "debit.delete", "debit", id, "debit deleted")
	return nil
}
