package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mostrador/internal/auth"
	"mostrador/internal/domain"
	"mostrador/internal/dto"
	apperrors "mostrador/internal/errors"
	"mostrador/internal/order/usecase"
)

const idempotencyHeader = "Idempotency-Key"

type OrderUseCase interface {
	CreateOrder(ctx context.Context, actor domain.Identity, idempotencyKey string, input dto.CreateOrderInput) (*domain.Order, bool, error)
	EditOrder(ctx context.Context, actor domain.Identity, orderID uint, input dto.EditOrderInput) (*domain.Order, error)
	PatchItems(ctx context.Context, actor domain.Identity, orderID uint, patches []dto.QuantityPatch, note *string) (*domain.Order, error)
	DeliverOrder(ctx context.Context, actor domain.Identity, orderID uint, input dto.DeliverOrderInput) (*domain.Order, bool, error)
	DeleteOrder(ctx context.Context, actor domain.Identity, orderID uint, note *string) error
	GetOrder(ctx context.Context, actor domain.Identity, orderID uint) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Identity, query usecase.ListQuery) (*usecase.ListResult, error)
}

type InvoiceRenderer interface {
	Render(w io.Writer, order domain.Order) error
}

type deleteOrderRequest struct {
	Note *string `json:"note" validate:"omitempty,max=500"`
}

type OrderController struct {
	useCase  OrderUseCase
	invoices InvoiceRenderer
	logger   *zap.Logger
}

func NewOrderController(useCase OrderUseCase, invoices InvoiceRenderer, logger *zap.Logger) *OrderController {
	return &OrderController{
		useCase:  useCase,
		invoices: invoices,
		logger:   logger,
	}
}

// Routes mounts the order endpoints. Callers must already be authenticated.
func (c *OrderController) Routes(r chi.Router) {
	r.Post("/", c.CreateOrder)
	r.Get("/", c.ListOrders)
	r.Route("/{orderId}", func(r chi.Router) {
		r.Get("/", c.GetOrder)
		r.Put("/", c.EditOrder)
		r.Delete("/", c.DeleteOrder)
		r.Patch("/items", c.PatchItems)
		r.Post("/deliver", c.DeliverOrder)
		r.Get("/invoice.pdf", c.Invoice)
	})
}

func (c *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateOrderRequest
	if !c.decode(w, r, traceID, &req, false, logger) {
		return
	}

	idempotencyKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	order, replayed, err := c.useCase.CreateOrder(r.Context(), c.actor(r), idempotencyKey, req.ToInput())
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}

	logger.Info("order created", zap.Uint("orderId", order.ID), zap.String("folio", order.Folio), zap.Bool("replayed", replayed))
	c.writeOrder(w, status, traceID, order)
}

func (c *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	query, err := parseListQuery(r)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	result, err := c.useCase.ListOrders(r.Context(), c.actor(r), query)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	orders := make([]dto.OrderResponse, 0, len(result.Orders))
	for _, order := range result.Orders {
		orders = append(orders, dto.NewOrderResponse(order))
	}

	c.writeJSON(w, http.StatusOK, dto.ListOrdersResponse{
		TraceID: traceID,
		Orders:  orders,
		Limit:   result.Limit,
		Offset:  result.Offset,
	})
}

func (c *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	order, err := c.useCase.GetOrder(r.Context(), c.actor(r), orderID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeOrder(w, http.StatusOK, traceID, order)
}

func (c *OrderController) EditOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	var req dto.EditOrderRequest
	if !c.decode(w, r, traceID, &req, false, logger) {
		return
	}

	order, err := c.useCase.EditOrder(r.Context(), c.actor(r), orderID, req.ToInput())
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeOrder(w, http.StatusOK, traceID, order)
}

func (c *OrderController) PatchItems(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	var req dto.PatchItemsRequest
	if !c.decode(w, r, traceID, &req, false, logger) {
		return
	}

	order, err := c.useCase.PatchItems(r.Context(), c.actor(r), orderID, req.ToPatches(), req.Note)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeOrder(w, http.StatusOK, traceID, order)
}

func (c *OrderController) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	var req dto.DeliverOrderRequest
	if !c.decode(w, r, traceID, &req, true, logger) {
		return
	}

	order, alreadyDelivered, err := c.useCase.DeliverOrder(r.Context(), c.actor(r), orderID, req.ToInput())
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	resp := dto.NewOrderResponse(*order)
	resp.TraceID = traceID
	c.writeJSON(w, http.StatusOK, dto.DeliverOrderResponse{
		OrderResponse:    resp,
		AlreadyDelivered: alreadyDelivered,
	})
}

func (c *OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	var req deleteOrderRequest
	if !c.decode(w, r, traceID, &req, true, logger) {
		return
	}

	if err := c.useCase.DeleteOrder(r.Context(), c.actor(r), orderID, req.Note); err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.DeleteOrderResponse{
		TraceID: traceID,
		OrderID: orderID,
		Deleted: true,
	})
}

func (c *OrderController) Invoice(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orderID, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	order, err := c.useCase.GetOrder(r.Context(), c.actor(r), orderID)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	var buf bytes.Buffer
	if err := c.invoices.Render(&buf, *order); err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+order.Folio+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Error("failed to write invoice", zap.Error(err))
	}
}

func (c *OrderController) actor(r *http.Request) domain.Identity {
	identity, _ := auth.IdentityFrom(r.Context())
	return identity
}

func (c *OrderController) orderID(w http.ResponseWriter, r *http.Request, traceID string) (uint, bool) {
	orderID, err := strconv.ParseUint(chi.URLParam(r, "orderId"), 10, 64)
	if err != nil || orderID == 0 {
		c.writeValidationError(w, traceID, "invalid orderId", apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId must be a positive integer",
		})
		return 0, false
	}
	return uint(orderID), true
}

// decode reads and validates the JSON body. An empty body is accepted when optional.
func (c *OrderController) decode(w http.ResponseWriter, r *http.Request, traceID string, req any, optional bool, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if !optional || !errors.Is(err, io.EOF) {
			logger.Warn("invalid JSON body", zap.Error(err))
			c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
				Field:   "body",
				Message: "request body must be valid JSON",
			})
			return false
		}
	}

	if err := dto.Validate(req); err != nil {
		ve, _ := apperrors.IsValidationError(err)
		logger.Warn("request validation failed", zap.Int("violations", len(ve.Details)))
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return false
	}

	return true
}

func parseListQuery(r *http.Request) (usecase.ListQuery, error) {
	var query usecase.ListQuery
	values := r.URL.Query()

	if raw := values.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return query, apperrors.NewValidationError("invalid limit", apperrors.ValidationDetail{
				Field:   "limit",
				Message: "limit must be a positive integer",
			})
		}
		query.Limit = v
	}

	if raw := values.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return query, apperrors.NewValidationError("invalid offset", apperrors.ValidationDetail{
				Field:   "offset",
				Message: "offset must be a non-negative integer",
			})
		}
		query.Offset = v
	}

	query.Status = strings.ToUpper(strings.TrimSpace(values.Get("status")))
	return query, nil
}

func (c *OrderController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		logger.Warn("validation rejected", zap.String("message", ve.Message))
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsUnauthorizedError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsForbiddenError(err); ok {
		logger.Warn("forbidden", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeErrorResponse(w, traceID, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}

	if stateErr, ok := apperrors.IsInvalidStateError(err); ok {
		logger.Warn("invalid order state", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusConflict, "INVALID_STATE", err.Error(), map[string]string{"status": stateErr.Status})
		return
	}

	if slotErr, ok := apperrors.IsInvalidSlotError(err); ok {
		logger.Warn("invalid delivery slot", zap.Uint("slotId", slotErr.SlotID))
		c.writeErrorResponse(w, traceID, http.StatusUnprocessableEntity, "INVALID_SLOT", err.Error(), map[string]uint{"deliverySlotId": slotErr.SlotID})
		return
	}

	if stockErr, ok := apperrors.IsInsufficientStockError(err); ok {
		logger.Warn("insufficient stock", zap.Int("shortages", len(stockErr.Shortages)))
		c.writeErrorResponse(w, traceID, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), stockErr.Shortages)
		return
	}

	if _, ok := apperrors.IsDeadlockError(err); ok {
		logger.Warn("deadlock retries exhausted", zap.Error(err))
		c.writeErrorResponse(w, traceID, http.StatusConflict, "DEADLOCK", err.Error(), nil)
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeErrorResponse(w, traceID, http.StatusInternalServerError, "INTERNAL_ERROR", "an unexpected error occurred", nil)
}

func (c *OrderController) writeOrder(w http.ResponseWriter, status int, traceID string, order *domain.Order) {
	resp := dto.NewOrderResponse(*order)
	resp.TraceID = traceID
	c.writeJSON(w, status, resp)
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	c.writeErrorResponse(w, traceID, http.StatusBadRequest, "VALIDATION_ERROR", message, details)
}

func (c *OrderController) writeErrorResponse(w http.ResponseWriter, traceID string, statusCode int, code string, message string, details any) {
	c.writeJSON(w, statusCode, dto.ErrorResponse{
		TraceID:   traceID,
		Status:    statusCode,
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
