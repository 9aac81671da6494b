package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID             uint
	FolioNumber    int
	Folio          string
	CustomerName   string
	Status         string
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedBy      string
	UpdatedAt      time.Time
	DeletedAt      *time.Time
	DeliveredAt    *time.Time
	DeliveredPlace *string
	DeliveredBy    *string
	DeliverySlotID *uint
	Items          []OrderItem
	Audits         []OrderAudit
}

const (
	OrderStatusPending   = "PENDING"
	OrderStatusDelivered = "DELIVERED"
)

func (o Order) IsDeleted() bool {
	return o.DeletedAt != nil
}

func (o Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// Total sums the snapshotted line prices.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
