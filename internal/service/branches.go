package service

import (
	"context"
	"strings"

	"hrdesk-backend/internal/apperr"
	"hrdesk-backend/internal/domain"
	"hrdesk-backend/internal/ports"
)

type BranchService struct {
	Branches ports.BranchStore
	Audit    Auditor
}

func (s BranchService) Create(ctx context.Context, actor Actor, name, address string) (*domain.Branch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Field("name", "is required")
	}
	b, err := s.Branches.CreateBranch(ctx, domain.Branch{Name: name, Address: strings.TrimSpace(address)})
	if err != nil {
		return nil, storeErr(err, "branch")
	}
	s.Audit.Record(ctx, actor, "branch.create", "branch", b.ID, "branch %s created", b.Name)
	return b, nil
}

func (s BranchService) List(ctx context.Context) ([]domain.Branch, error) {
	items, err := s.Branches.ListBranches(ctx)
	if err != nil {
		return nil, storeErr(err, "branch")
	}
	if items == nil {
		items = []domain.Branch{}
	}
	return items, nil
}
