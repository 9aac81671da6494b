package domain

import "github.com/shopspring/decimal"

const DefaultUnit = "PZA"

// OrderItem holds the product name and unit price as they were when the line was written.
type OrderItem struct {
	ID          uint
	OrderID     uint
	ProductID   int
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	Unit        string
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
