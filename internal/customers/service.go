package customers

import (
	"context"
	"strings"
)

// RepositoryPort abstracts storage access for the service.
type RepositoryPort interface {
	GetByID(ctx context.Context, id int64) (Customer, error)
	FindAll(ctx context.Context, limit int) ([]Customer, error)
	Search(ctx context.Context, term string, limit int) ([]Customer, error)
}

// Service exposes customer lookups.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Get returns a customer by id.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns up to limit customers.
func (s *Service) List(ctx context.Context, limit int) ([]Customer, error) {
	return s.repo.FindAll(ctx, limit)
}

// Search returns customers matching term; an empty term falls back to List.
func (s *Service) Search(ctx context.Context, term string, limit int) ([]Customer, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.repo.FindAll(ctx, limit)
	}
	return s.repo.Search(ctx, term, limit)
}
