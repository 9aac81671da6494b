package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int
	Name        string
	Price       decimal.Decimal
	Category    string
	ImageURL    string
	Description string
	Details     []string
	Rating      float64
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Product) HasStockFor(quantity int) bool {
	return p.Stock >= quantity
}
