package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	CustomerName   string             `json:"customerName" validate:"required,max=255"`
	DeliverySlotID *uint              `json:"deliverySlotId" validate:"omitempty,gt=0"`
	Items          []OrderItemRequest `json:"items" validate:"required,min=1,max=100,unique=ProductID,dive"`
	Note           *string            `json:"note" validate:"omitempty,max=500"`
}

type OrderItemRequest struct {
	ProductID int              `json:"productId" validate:"gt=0"`
	Quantity  int              `json:"quantity" validate:"gte=1,lte=10000"`
	UnitPrice *decimal.Decimal `json:"unitPrice" validate:"omitempty,gte=0"`
	Unit      string           `json:"unit" validate:"omitempty,max=20"`
}

// EditOrderRequest replaces the header and, when Items is present, the whole item set.
type EditOrderRequest struct {
	CustomerName *string            `json:"customerName" validate:"omitempty,max=255"`
	Items        []OrderItemRequest `json:"items" validate:"omitempty,min=1,max=100,unique=ProductID,dive"`
	Note         *string            `json:"note" validate:"omitempty,max=500"`
}

type PatchItemsRequest struct {
	Items []PatchItemRequest `json:"items" validate:"required,min=1,max=100,unique=ItemID,dive"`
	Note  *string            `json:"note" validate:"omitempty,max=500"`
}

type PatchItemRequest struct {
	ItemID   uint `json:"itemId" validate:"gt=0"`
	Quantity int  `json:"quantity" validate:"gte=1,lte=10000"`
}

type DeliverOrderRequest struct {
	DeliveredAt    *time.Time `json:"deliveredAt"`
	DeliveredPlace *string    `json:"deliveredPlace" validate:"omitempty,max=255"`
	Note           *string    `json:"note" validate:"omitempty,max=500"`
}
