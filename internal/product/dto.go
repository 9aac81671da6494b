package product

import (
	"github.com/shopspring/decimal"

	"mostrador/internal/domain"
)

type SearchProductsRequest struct {
	ProductIDs []int `json:"productIds" validate:"required,min=1,max=100,dive,gt=0"`
}

type SearchProductsResponse struct {
	Products []ProductDTO `json:"products"`
	NotFound []int        `json:"notFound"`
}

type ListProductsResponse struct {
	Products []ProductDTO `json:"products"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}

type ProductDTO struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description"`
	Details     []string        `json:"details"`
	Rating      float64         `json:"rating"`
	Stock       int             `json:"stock"`
	HasStock    bool            `json:"hasStock"`
}

func toProductDTO(p domain.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Details:     p.Details,
		Rating:      p.Rating,
		Stock:       p.Stock,
		HasStock:    p.HasStockFor(1),
	}
}
