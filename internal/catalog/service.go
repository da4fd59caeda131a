package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/hotwind-erp/hotwind/internal/shared"
)

// RepositoryPort abstracts storage access for the service.
type RepositoryPort interface {
	GetBySKU(ctx context.Context, sku string) (HeaterModel, error)
	FindAll(ctx context.Context, limit int) ([]HeaterModel, error)
	Search(ctx context.Context, term string, limit int) ([]HeaterModel, error)
	ListInStock(ctx context.Context) ([]HeaterModel, error)
	CurrentListPrice(ctx context.Context, sku string) (ListPrice, error)
}

// Service exposes heater model lookups.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns a model by SKU.
func (s *Service) Get(ctx context.Context, sku string) (HeaterModel, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// GetDetail returns a model with its current list price. A model without a
// current price is still returned; only a missing model is an error.
func (s *Service) GetDetail(ctx context.Context, sku string) (ModelDetail, error) {
	model, err := s.repo.GetBySKU(ctx, sku)
	if err != nil {
		return ModelDetail{}, err
	}
	detail := ModelDetail{HeaterModel: model}
	price, err := s.repo.CurrentListPrice(ctx, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return detail, nil
		}
		return ModelDetail{}, err
	}
	detail.CurrentPrice = &price
	return detail, nil
}

// List returns up to limit models.
func (s *Service) List(ctx context.Context, limit int) ([]HeaterModel, error) {
	return s.repo.FindAll(ctx, limit)
}

// Search returns models matching term; an empty term falls back to List.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]HeaterModel, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.FindAll(ctx, limit)
	}
	return s.repo.Search(ctx, term, limit)
}

// ListInStock returns models with remaining stock in any lot.
func (s *Service) ListInStock(ctx context.Context) ([]HeaterModel, error) {
	return s.repo.ListInStock(ctx)
}
