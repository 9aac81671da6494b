package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItemInput struct {
	ProductID int
	Quantity  int
	UnitPrice *decimal.Decimal
	Unit      string
}

type CreateOrderInput struct {
	CustomerName   string
	DeliverySlotID *uint
	Items          []OrderItemInput
	Note           *string
}

// EditOrderInput leaves a field untouched when it is nil. A non-nil Items
// replaces every line of the order.
type EditOrderInput struct {
	CustomerName *string
	Items        []OrderItemInput
	Note         *string
}

type QuantityPatch struct {
	ItemID   uint
	Quantity int
}

type DeliverOrderInput struct {
	DeliveredAt    *time.Time
	DeliveredPlace *string
	Note           *string
}

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventEdited    OrderEventType = "order.edited"
	OrderEventDelivered OrderEventType = "order.delivered"
	OrderEventDeleted   OrderEventType = "order.deleted"
)

type OrderEvent struct {
	EventID    string         `json:"eventId"`
	Type       OrderEventType `json:"type"`
	OrderID    uint           `json:"orderId"`
	Folio      string         `json:"folio"`
	Status     string         `json:"status"`
	Actor      string         `json:"actor"`
	OccurredAt time.Time      `json:"occurredAt"`
}

func (r CreateOrderRequest) ToInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:   r.CustomerName,
		DeliverySlotID: r.DeliverySlotID,
		Items:          toItemInputs(r.Items),
		Note:           r.Note,
	}
}

func (r EditOrderRequest) ToInput() EditOrderInput {
	return EditOrderInput{
		CustomerName: r.CustomerName,
		Items:        toItemInputs(r.Items),
		Note:         r.Note,
	}
}

func (r PatchItemsRequest) ToPatches() []QuantityPatch {
	patches := make([]QuantityPatch, len(r.Items))
	for i, item := range r.Items {
		patches[i] = QuantityPatch{ItemID: item.ItemID, Quantity: item.Quantity}
	}
	return patches
}

func (r DeliverOrderRequest) ToInput() DeliverOrderInput {
	return DeliverOrderInput{
		DeliveredAt:    r.DeliveredAt,
		DeliveredPlace: r.DeliveredPlace,
		Note:           r.Note,
	}
}

func toItemInputs(items []OrderItemRequest) []OrderItemInput {
	if items == nil {
		return nil
	}
	inputs := make([]OrderItemInput, len(items))
	for i, item := range items {
		inputs[i] = OrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Unit:      item.Unit,
		}
	}
	return inputs
}
