package usecase

import (
	"context"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mostrador/internal/domain"
	"mostrador/internal/dto"
	apperrors "mostrador/internal/errors"
	"mostrador/internal/infrastructure/metrics"
	"mostrador/internal/infrastructure/mysql"
	"mostrador/internal/order/repository"
)

type WorkflowService interface {
	Create(ctx context.Context, actor domain.Identity, input dto.CreateOrderInput) (*domain.Order, error)
	Edit(ctx context.Context, actor domain.Identity, orderID uint, input dto.EditOrderInput) (*domain.Order, error)
	PatchQuantities(ctx context.Context, actor domain.Identity, orderID uint, patches []dto.QuantityPatch, note *string) (*domain.Order, error)
	Deliver(ctx context.Context, actor domain.Identity, orderID uint, input dto.DeliverOrderInput) (*domain.Order, bool, error)
	Delete(ctx context.Context, actor domain.Identity, orderID uint, note *string) (*domain.Order, error)
}

type OrderRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.Order, error)
	List(ctx context.Context, filter repository.ListFilter) ([]domain.Order, error)
}

type OrderItemRepository interface {
	FindByOrder(ctx context.Context, orderID uint) ([]domain.OrderItem, error)
}

type OrderAuditRepository interface {
	FindByOrder(ctx context.Context, orderID uint) ([]domain.OrderAudit, error)
}

// IdempotencyStore maps a client supplied key to the order it created.
// Claim is atomic: exactly one caller owns a key until it completes or releases it.
type IdempotencyStore interface {
	Claim(ctx context.Context, userID uint, key string) (orderID uint, claimed bool, err error)
	Complete(ctx context.Context, userID uint, key string, orderID uint) error
	Release(ctx context.Context, userID uint, key string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

const (
	claimPollAttempts = 20
	claimPollInterval = 50 * time.Millisecond
)

type Options struct {
	MaxRetryAttempts int
	ListDefaultLimit int
	ListMaxLimit     int
	// Location is the business timezone folios are dated in. Defaults to UTC.
	Location *time.Location
}

type ListQuery struct {
	Limit  int
	Offset int
	Status string
}

type ListResult struct {
	Orders []domain.Order
	Limit  int
	Offset int
}

type OrderUseCase struct {
	workflow    WorkflowService
	orderRepo   OrderRepository
	itemRepo    OrderItemRepository
	auditRepo   OrderAuditRepository
	idempotency IdempotencyStore
	events      EventPublisher
	metrics     *metrics.Registry
	logger      *zap.Logger
	opts        Options
	sleep       func(time.Duration)
}

func NewOrderUseCase(
	workflow WorkflowService,
	orderRepo OrderRepository,
	itemRepo OrderItemRepository,
	auditRepo OrderAuditRepository,
	idempotency IdempotencyStore,
	events EventPublisher,
	registry *metrics.Registry,
	logger *zap.Logger,
	opts Options,
) *OrderUseCase {
	if opts.MaxRetryAttempts < 1 {
		opts.MaxRetryAttempts = 1
	}
	if idempotency == nil {
		idempotency = NopIdempotencyStore{}
	}
	if events == nil {
		events = NopPublisher{}
	}
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &OrderUseCase{
		workflow:    workflow,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		auditRepo:   auditRepo,
		idempotency: idempotency,
		events:      events,
		metrics:     registry,
		logger:      logger,
		opts:        opts,
		sleep:       time.Sleep,
	}
}

// CreateOrder creates an order once per idempotency key. A replayed key
// returns the order created the first time and reports replayed.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, actor domain.Identity, idempotencyKey string, input dto.CreateOrderInput) (*domain.Order, bool, error) {
	if err := authorize(actor, "create", domain.Role.CanCreate); err != nil {
		return nil, false, err
	}

	uc.logger.Info("create order started", zap.String("actor", actor.Name), zap.Int("itemCount", len(input.Items)))

	owned := false
	if idempotencyKey != "" {
		replay, claimed, err := uc.claimKey(ctx, actor, idempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if replay != nil {
			uc.logger.Info("create order replayed", zap.Uint("orderId", replay.ID), zap.String("folio", replay.Folio))
			return replay, true, nil
		}
		owned = claimed
	}

	var order *domain.Order
	err := uc.withRetry(ctx, "create", func() error {
		var err error
		order, err = uc.workflow.Create(ctx, actor, input)
		return err
	})
	if err != nil {
		if owned {
			if releaseErr := uc.idempotency.Release(ctx, actor.UserID, idempotencyKey); releaseErr != nil {
				uc.logger.Warn("failed to release idempotency key", zap.Error(releaseErr))
			}
		}
		return nil, false, err
	}

	if owned {
		if err := uc.idempotency.Complete(ctx, actor.UserID, idempotencyKey, order.ID); err != nil {
			uc.logger.Warn("failed to complete idempotency key", zap.Uint("orderId", order.ID), zap.Error(err))
		}
	}

	uc.metrics.OrdersCreated.Inc()
	uc.publish(ctx, dto.OrderEventCreated, order, actor)

	uc.localize(order)
	return order, false, nil
}

func (uc *OrderUseCase) EditOrder(ctx context.Context, actor domain.Identity, orderID uint, input dto.EditOrderInput) (*domain.Order, error) {
	if err := authorize(actor, "edit", domain.Role.CanEdit); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := uc.withRetry(ctx, "edit", func() error {
		var err error
		order, err = uc.workflow.Edit(ctx, actor, orderID, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.OrdersEdited.Inc()
	uc.publish(ctx, dto.OrderEventEdited, order, actor)

	return uc.withAudits(ctx, order), nil
}

func (uc *OrderUseCase) PatchItems(ctx context.Context, actor domain.Identity, orderID uint, patches []dto.QuantityPatch, note *string) (*domain.Order, error) {
	if err := authorize(actor, "edit", domain.Role.CanEdit); err != nil {
		return nil, err
	}

	var order *domain.Order
	err := uc.withRetry(ctx, "patch", func() error {
		var err error
		order, err = uc.workflow.PatchQuantities(ctx, actor, orderID, patches, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.OrdersEdited.Inc()
	uc.publish(ctx, dto.OrderEventEdited, order, actor)

	return uc.withAudits(ctx, order), nil
}

// DeliverOrder reports alreadyDelivered instead of failing when the order was delivered before.
func (uc *OrderUseCase) DeliverOrder(ctx context.Context, actor domain.Identity, orderID uint, input dto.DeliverOrderInput) (*domain.Order, bool, error) {
	if err := authorize(actor, "deliver", domain.Role.CanDeliver); err != nil {
		return nil, false, err
	}

	var (
		order            *domain.Order
		alreadyDelivered bool
	)
	err := uc.withRetry(ctx, "deliver", func() error {
		var err error
		order, alreadyDelivered, err = uc.workflow.Deliver(ctx, actor, orderID, input)
		return err
	})
	if err != nil {
		if _, ok := apperrors.IsInsufficientStockError(err); ok {
			uc.metrics.StockRejections.Inc()
		}
		return nil, false, err
	}

	if !alreadyDelivered {
		uc.metrics.OrdersDelivered.Inc()
		uc.publish(ctx, dto.OrderEventDelivered, order, actor)
	}

	return uc.withAudits(ctx, order), alreadyDelivered, nil
}

func (uc *OrderUseCase) DeleteOrder(ctx context.Context, actor domain.Identity, orderID uint, note *string) error {
	if err := authorize(actor, "delete", domain.Role.CanDelete); err != nil {
		return err
	}

	var order *domain.Order
	err := uc.withRetry(ctx, "delete", func() error {
		var err error
		order, err = uc.workflow.Delete(ctx, actor, orderID, note)
		return err
	})
	if err != nil {
		return err
	}

	uc.metrics.OrdersDeleted.Inc()
	uc.publish(ctx, dto.OrderEventDeleted, order, actor)

	return nil
}

// GetOrder returns an active order with its items and full audit trail.
func (uc *OrderUseCase) GetOrder(ctx context.Context, actor domain.Identity, orderID uint) (*domain.Order, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}
	return uc.load(ctx, orderID)
}

// ListOrders returns active orders, newest first. Limit falls back to the
// configured default and is capped at the configured maximum.
func (uc *OrderUseCase) ListOrders(ctx context.Context, actor domain.Identity, query ListQuery) (*ListResult, error) {
	if err := authenticated(actor); err != nil {
		return nil, err
	}

	if query.Status != "" && query.Status != domain.OrderStatusPending && query.Status != domain.OrderStatusDelivered {
		return nil, apperrors.NewValidationError("invalid status filter", apperrors.ValidationDetail{
			Field:   "status",
			Message: "status must be PENDING or DELIVERED",
		})
	}

	limit := query.Limit
	if limit <= 0 {
		limit = uc.opts.ListDefaultLimit
	}
	if uc.opts.ListMaxLimit > 0 && limit > uc.opts.ListMaxLimit {
		limit = uc.opts.ListMaxLimit
	}
	offset := max(query.Offset, 0)

	orders, err := uc.orderRepo.List(ctx, repository.ListFilter{Limit: limit, Offset: offset, Status: query.Status})
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := uc.itemRepo.FindByOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
		uc.localize(&orders[i])
	}

	return &ListResult{Orders: orders, Limit: limit, Offset: offset}, nil
}

// claimKey returns the order a finished request created under key, or claimed=true
// when this request owns the key. A request still in flight under the same key is
// waited for; if it does not finish in time the caller gets InvalidState.
// A store failure degrades to creating without a claim.
func (uc *OrderUseCase) claimKey(ctx context.Context, actor domain.Identity, key string) (*domain.Order, bool, error) {
	for attempt := 1; attempt <= claimPollAttempts; attempt++ {
		orderID, claimed, err := uc.idempotency.Claim(ctx, actor.UserID, key)
		if err != nil {
			uc.logger.Warn("idempotency claim failed, creating anyway", zap.Error(err))
			return nil, false, nil
		}
		if claimed {
			return nil, true, nil
		}
		if orderID != 0 {
			order, err := uc.load(ctx, orderID)
			return order, false, err
		}

		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		uc.sleep(claimPollInterval)
	}

	uc.logger.Warn("idempotency key still in progress", zap.String("actor", actor.Name))
	return nil, false, apperrors.NewInvalidStateError("a request with this idempotency key is still in progress", "IN_PROGRESS")
}

func (uc *OrderUseCase) load(ctx context.Context, orderID uint) (*domain.Order, error) {
	order, err := uc.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Items, err = uc.itemRepo.FindByOrder(ctx, order.ID); err != nil {
		return nil, err
	}
	if order.Audits, err = uc.auditRepo.FindByOrder(ctx, order.ID); err != nil {
		return nil, err
	}

	uc.localize(order)
	return order, nil
}

// withAudits attaches the committed audit trail. A read failure only costs the trail.
func (uc *OrderUseCase) withAudits(ctx context.Context, order *domain.Order) *domain.Order {
	audits, err := uc.auditRepo.FindByOrder(ctx, order.ID)
	if err != nil {
		uc.logger.Warn("failed to load audit trail", zap.Uint("orderId", order.ID), zap.Error(err))
	} else {
		order.Audits = audits
	}
	uc.localize(order)
	return order
}

// localize moves stored UTC timestamps into the business timezone so the folio
// date matches CreatedAt.
func (uc *OrderUseCase) localize(order *domain.Order) {
	loc := uc.opts.Location
	order.CreatedAt = order.CreatedAt.In(loc)
	order.UpdatedAt = order.UpdatedAt.In(loc)
	if order.DeliveredAt != nil {
		t := order.DeliveredAt.In(loc)
		order.DeliveredAt = &t
	}
	if order.DeletedAt != nil {
		t := order.DeletedAt.In(loc)
		order.DeletedAt = &t
	}
	for i := range order.Audits {
		order.Audits[i].CreatedAt = order.Audits[i].CreatedAt.In(loc)
	}
}

func (uc *OrderUseCase) withRetry(ctx context.Context, operation string, fn func() error) error {
	started := time.Now()
	defer uc.metrics.ObserveTx(operation, started)

	maxAttempts := uc.opts.MaxRetryAttempts
	// Backoff intervals: attempt 1 (0ms), attempt 2 (100ms), attempt 3 (200ms), etc.
	backoffs := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if !mysql.IsDeadlock(err) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		base := backoffs[min(attempt, len(backoffs)-1)]
		// ±20% jitter
		jitter := time.Duration(float64(base) * (rand.Float64()*0.4 - 0.2))
		uc.metrics.DeadlockRetries.Inc()
		uc.logger.Warn("deadlock detected, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
		)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		uc.sleep(base + jitter)
	}

	uc.logger.Error("deadlock retries exhausted", zap.String("operation", operation), zap.Int("maxAttempts", maxAttempts))
	return apperrors.NewDeadlockError("max retries exceeded")
}

// publish runs after commit; a failed publish is logged and never fails the request.
func (uc *OrderUseCase) publish(ctx context.Context, eventType dto.OrderEventType, order *domain.Order, actor domain.Identity) {
	event := dto.OrderEvent{
		EventID:    uuid.New().String(),
		Type:       eventType,
		OrderID:    order.ID,
		Folio:      order.Folio,
		Status:     order.Status,
		Actor:      actor.Name,
		OccurredAt: time.Now().UTC(),
	}

	if err := uc.events.Publish(ctx, strconv.FormatUint(uint64(order.ID), 10), event); err != nil {
		uc.metrics.EventPublishErrs.Inc()
		uc.logger.Warn("failed to publish order event",
			zap.String("type", string(eventType)),
			zap.Uint("orderId", order.ID),
			zap.Error(err),
		)
	}
}

func authenticated(actor domain.Identity) error {
	if actor.Name == "" || !actor.Role.Valid() {
		return apperrors.NewUnauthorizedError("authentication required")
	}
	return nil
}

// authorize is the single capability gate, evaluated before any transaction starts.
func authorize(actor domain.Identity, action string, can func(domain.Role) bool) error {
	if err := authenticated(actor); err != nil {
		return err
	}
	if !can(actor.Role) {
		return apperrors.NewForbiddenError("role " + string(actor.Role) + " may not " + action + " orders")
	}
	return nil
}

type NopIdempotencyStore struct{}

func (NopIdempotencyStore) Claim(context.Context, uint, string) (uint, bool, error) {
	return 0, true, nil
}

func (NopIdempotencyStore) Complete(context.Context, uint, string, uint) error { return nil }

func (NopIdempotencyStore) Release(context.Context, uint, string) error { return nil }

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
