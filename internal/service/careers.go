package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type CareerService struct {
	Careers ports.CareerStore
	Audit   Auditor
	Logger  *slog.Logger
}

func (s CareerService) CreatePosition(ctx context.Context, actor Actor, title, department, description string) (*domain.JobPosition, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Field("title", "is required")
	}
	p, err := s.Careers.CreatePosition(ctx, domain.JobPosition{
		Title:       strings.TrimSpace(title),
		Department:  strings.TrimSpace(department),
		Description: description,
		Open:        true,
	})
	if err != nil {
		return nil, storeErr(err, "position")
	}
	s.Audit.Record(ctx, actor, "career.position.create", "position", p.ID, "position %q opened", p.Title)
	return p, nil
}

func (s CareerService) ListPositions(ctx context.Context, openOnly bool) ([]domain.JobPosition, error) {
	items, err := s.Careers.ListPositions(ctx, openOnly)
	if err != nil {
		return nil, storeErr(err, "position")
	}
	if items == nil {
		items = []domain.JobPosition{}
	}
	return items, nil
}

func (s CareerService) ClosePosition(ctx context.Context, actor Actor, id int64) (*domain.JobPosition, error) {
	p, err := s.Careers.SetPositionOpen(ctx, id, false)
	if err != nil {
		return nil, storeErr(err, "position")
	}
	s.Audit.Record(ctx, actor, "career.position.close", "position", id, "position %q closed", p.Title)
	return p, nil
}

type ApplyInput struct {
	Name      string
	Email     string
	Phone     string
	ResumeURL string
	CoverNote string
}

// Apply records a public application against an open position.
func (s CareerService) Apply(ctx context.Context, positionID int64, in ApplyInput) (*domain.JobApplication, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Field("name", "is required")
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, apperr.Field("email", "must be a valid email address")
	}
	p, err := s.Careers.GetPosition(ctx, positionID)
	if err != nil {
		return nil, storeErr(err, "position")
	}
	if !p.Open {
		return nil, apperr.Conflict("position %q is no longer accepting applications", p.Title)
	}
	a, err := s.Careers.CreateApplication(ctx, domain.JobApplication{
		PositionID: positionID,
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.ToLower(addr.Address),
		Phone:      strings.TrimSpace(in.Phone),
		ResumeURL:  strings.TrimSpace(in.ResumeURL),
		CoverNote:  in.CoverNote,
		Status:     domain.ApplicationNew,
	})
	if err != nil {
		return nil, storeErr(err, "application")
	}
	loggerOrDefault(s.Logger).InfoContext(ctx, "job application received", "position_id", positionID, "application_id", a.ID)
	return a, nil
}

func (s CareerService) ListApplications(ctx context.Context, positionID *int64) ([]domain.JobApplication, error) {
	items, err := s.Careers.ListApplications(ctx, positionID)
	if err != nil {
		return nil, storeErr(err, "application")
	}
	if items == nil {
		items = []domain.JobApplication{}
	}
	return items, nil
}

func (s CareerService) SetApplicationStatus(ctx context.Context, actor Actor, id int64, status domain.ApplicationStatus) (*domain.JobApplication, error) {
	if !status.Valid() {
		return nil, apperr.Field("status", "must be one of new, shortlisted, rejected, hired")
	}
	a, err := s.Careers.SetApplicationStatus(ctx, id, status)
	if err != nil {
		return nil, storeErr(err, "application")
	}
	s.Audit.Record(ctx, actor, "career.application.status", "application", id, "status set to %s", status)
	return a, nil
}
