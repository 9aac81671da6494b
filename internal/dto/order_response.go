package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"mostrador/internal/domain"
)

type OrderResponse struct {
	TraceID        string               `json:"traceId,omitempty"`
	ID             uint                 `json:"id"`
	FolioNumber    int                  `json:"folioNumber"`
	Folio          string               `json:"folio"`
	CustomerName   string               `json:"customerName"`
	Status         string               `json:"status"`
	CreatedBy      string               `json:"createdBy"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedBy      string               `json:"updatedBy"`
	UpdatedAt      time.Time            `json:"updatedAt"`
	DeliveredAt    *time.Time           `json:"deliveredAt,omitempty"`
	DeliveredPlace *string              `json:"deliveredPlace,omitempty"`
	DeliveredBy    *string              `json:"deliveredBy,omitempty"`
	DeliverySlotID *uint                `json:"deliverySlotId,omitempty"`
	Total          decimal.Decimal      `json:"total"`
	Items          []OrderItemResponse  `json:"items"`
	Audits         []OrderAuditResponse `json:"audits,omitempty"`
}

type OrderItemResponse struct {
	ID          uint            `json:"id"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Unit        string          `json:"unit"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderAuditResponse struct {
	Action    string    `json:"action"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
	Note      *string   `json:"note,omitempty"`
}

type DeliverOrderResponse struct {
	OrderResponse
	AlreadyDelivered bool `json:"alreadyDelivered"`
}

type DeleteOrderResponse struct {
	TraceID string `json:"traceId"`
	OrderID uint   `json:"orderId"`
	Deleted bool   `json:"deleted"`
}

type ListOrdersResponse struct {
	TraceID string          `json:"traceId"`
	Orders  []OrderResponse `json:"orders"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

type ErrorResponse struct {
	TraceID   string    `json:"traceId"`
	Status    int       `json:"status"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewOrderResponse(order domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Unit:        item.Unit,
			Subtotal:    item.Subtotal(),
		})
	}

	var audits []OrderAuditResponse
	for _, audit := range order.Audits {
		audits = append(audits, OrderAuditResponse{
			Action:    string(audit.Action),
			UserName:  audit.UserName,
			CreatedAt: audit.CreatedAt,
			Note:      audit.Note,
		})
	}

	return OrderResponse{
		ID:             order.ID,
		FolioNumber:    order.FolioNumber,
		Folio:          order.Folio,
		CustomerName:   order.CustomerName,
		Status:         order.Status,
		CreatedBy:      order.CreatedBy,
		CreatedAt:      order.CreatedAt,
		UpdatedBy:      order.UpdatedBy,
		UpdatedAt:      order.UpdatedAt,
		DeliveredAt:    order.DeliveredAt,
		DeliveredPlace: order.DeliveredPlace,
		DeliveredBy:    order.DeliveredBy,
		DeliverySlotID: order.DeliverySlotID,
		Total:          order.Total(),
		Items:          items,
		Audits:         audits,
	}
}
