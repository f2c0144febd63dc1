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

type TransferService struct {
	Transfers ports.TransferStore
	Audit     Auditor
	Logger    *slog.Logger
	Location  *time.Location
	Now       func() time.Time
}

func (s TransferService) CreateBusiness(ctx context.Context, actor Actor, name, contact, note string) (*domain.ExternalBusiness, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Field("name", "is required")
	}
	b, err := s.Transfers.CreateBusiness(ctx, domain.ExternalBusiness{Name: strings.TrimSpace(name), Contact: contact, Note: note})
	if err != nil {
		return nil, storeErr(err, "business")
	}
	s.Audit.Record(ctx, actor, "business.create", "business", b.ID, "business %s created", b.Name)
	return b, nil
}

func (s TransferService) ListBusinesses(ctx context.Context) ([]domain.ExternalBusiness, error) {
	items, err := s.Transfers.ListBusinesses(ctx)
	if err != nil {
		return nil, storeErr(err, "business")
	}
	return items, nil
}

type CreateTransferInput struct {
	BusinessID   int64
	PeriodType   domain.PeriodType
	Period       string
	Amount       decimal.Decimal
	TransferDate string
	Note         string
}

func (s TransferService) CreateTransfer(ctx context.Context, actor Actor, in CreateTransferInput) (*domain.ProfitTransfer, error) {
	if in.BusinessID <= 0 {
		return nil, apperr.Field("businessId", "is required")
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	if in.Period == "" {
		return nil, apperr.Field("period", "is required")
	}
	now := nowFrom(s.Now)
	p, err := ResolvePeriod(in.PeriodType, in.Period, now, s.Location)
	if err != nil {
		return nil, err
	}
	day := domain.DateOf(now, locationOrUTC(s.Location))
	if in.TransferDate != "" {
		if day, err = parseDate("transferDate", in.TransferDate); err != nil {
			return nil, err
		}
	}
	if _, err := s.Transfers.GetBusiness(ctx, in.BusinessID); err != nil {
		return nil, storeErr(err, "business")
	}
	t, err := s.Transfers.CreateTransfer(ctx, domain.ProfitTransfer{
		BusinessID:   in.BusinessID,
		Period:       p,
		Amount:       domain.Round2(in.Amount),
		TransferDate: day,
		Note:         in.Note,
		CreatedBy:    actor.ref(),
	})
	if err != nil {
		return nil, storeErr(err, "transfer")
	}
	s.Audit.Record(ctx, actor, "transfer.create", "business", in.BusinessID, "transferred %s for %s", t.Amount.StringFixed(2), p)
	return t, nil
}

func (s TransferService) ListTransfers(ctx context.Context, businessID *int64, periodKey string) ([]domain.ProfitTransfer, error) {
	var filter *domain.Period
	if periodKey != "" {
		p, err := domain.ParsePeriodKey(periodKey)
		if err != nil {
			return nil, apperr.Field("period", err.Error())
		}
		filter = &p
	}
	items, err := s.Transfers.ListTransfers(ctx, businessID, filter)
	if err != nil {
		return nil, storeErr(err, "transfer")
	}
	if items == nil {
		items = []domain.ProfitTransfer{}
	}
	return items, nil
}
