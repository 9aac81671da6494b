package product

import (
	"context"
)

type productUseCase struct {
	service Service
}

func NewUseCase(service Service) UseCase {
	return &productUseCase{service: service}
}

func (uc *productUseCase) SearchProducts(ctx context.Context, req SearchProductsRequest) (*SearchProductsResponse, error) {
	found, notFoundIDs, err := uc.service.GetProductsByIDs(ctx, req.ProductIDs)
	if err != nil {
		return nil, err
	}

	products := make([]ProductDTO, 0, len(found))
	for _, p := range found {
		products = append(products, toProductDTO(p))
	}

	if notFoundIDs == nil {
		notFoundIDs = []int{}
	}

	return &SearchProductsResponse{
		Products: products,
		NotFound: notFoundIDs,
	}, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, limit int, offset int) (*ListProductsResponse, error) {
	found, err := uc.service.ListProducts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	products := make([]ProductDTO, 0, len(found))
	for _, p := range found {
		products = append(products, toProductDTO(p))
	}

	return &ListProductsResponse{
		Products: products,
		Limit:    limit,
		Offset:   offset,
	}, nil
}
