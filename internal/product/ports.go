package product

import (
	"context"

	"mostrador/internal/domain"
)

type UseCase interface {
	SearchProducts(ctx context.Context, req SearchProductsRequest) (*SearchProductsResponse, error)
	ListProducts(ctx context.Context, limit int, offset int) (*ListProductsResponse, error)
}

type Service interface {
	GetProductsByIDs(ctx context.Context, ids []int) (found []domain.Product, notFoundIDs []int, err error)
	ListProducts(ctx context.Context, limit int, offset int) ([]domain.Product, error)
}

type Repository interface {
	FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error)
	List(ctx context.Context, limit int, offset int) ([]domain.Product, error)
}
