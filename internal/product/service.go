package product

import (
	"context"
	"fmt"

	"mostrador/internal/domain"
)

type productService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &productService{repo: repo}
}

// GetProductsByIDs resolves a cart or order lookup. Repeated ids are queried once,
// found products come back in request order and notFoundIDs lists each missing id once.
func (s *productService) GetProductsByIDs(ctx context.Context, ids []int) ([]domain.Product, []int, error) {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return []domain.Product{}, nil, nil
	}

	rows, err := s.repo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, nil, fmt.Errorf("finding products %v: %w", unique, err)
	}

	byID := make(map[int]domain.Product, len(rows))
	for _, p := range rows {
		byID[p.ID] = p
	}

	found := make([]domain.Product, 0, len(byID))
	var notFoundIDs []int
	for _, id := range unique {
		p, ok := byID[id]
		if !ok {
			notFoundIDs = append(notFoundIDs, id)
			continue
		}
		found = append(found, p)
	}

	return found, notFoundIDs, nil
}

func (s *productService) ListProducts(ctx context.Context, limit int, offset int) ([]domain.Product, error) {
	products, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing products (limit %d, offset %d): %w", limit, offset, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
