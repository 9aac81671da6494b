package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"mostrador/internal/domain"
	"mostrador/internal/dto"
	apperrors "mostrador/internal/errors"
)

type TransactionManager interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type OrderRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error)
	UpdateHeader(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	MarkDelivered(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	SoftDelete(ctx context.Context, tx *sql.Tx, id uint, deletedBy string, deletedAt time.Time) error
}

type OrderItemRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error)
	DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID uint) (int64, error)
	UpdateQuantity(ctx context.Context, tx *sql.Tx, orderID uint, itemID uint, quantity int) error
	FindByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.OrderItem, error)
}

type OrderAuditRepository interface {
	Insert(ctx context.Context, tx *sql.Tx, audit domain.OrderAudit) (uint, error)
}

type CounterRepository interface {
	Next(ctx context.Context, tx *sql.Tx) (int, error)
}

type ProductRepository interface {
	FindByIDsTx(ctx context.Context, tx *sql.Tx, ids []int) ([]domain.Product, error)
	FindByIDForUpdate(ctx context.Context, tx *sql.Tx, productID int) (*domain.Product, error)
	DecrementStock(ctx context.Context, tx *sql.Tx, productID int, quantity int) error
}

type SlotRepository interface {
	FindByIDTx(ctx context.Context, tx *sql.Tx, slotID uint) (*domain.DeliverySlot, error)
}

// WorkflowService runs each order lifecycle operation as one transaction. Every
// business rule is checked before the first write, so a failure leaves no trace.
type WorkflowService struct {
	db          TransactionManager
	orderRepo   OrderRepository
	itemRepo    OrderItemRepository
	auditRepo   OrderAuditRepository
	counterRepo CounterRepository
	productRepo ProductRepository
	slotRepo    SlotRepository
	logger      *zap.Logger
	txTimeout   time.Duration
	location    *time.Location
	now         func() time.Time
}

func NewWorkflowService(
	db TransactionManager,
	orderRepo OrderRepository,
	itemRepo OrderItemRepository,
	auditRepo OrderAuditRepository,
	counterRepo CounterRepository,
	productRepo ProductRepository,
	slotRepo SlotRepository,
	logger *zap.Logger,
	txTimeout time.Duration,
	location *time.Location,
) *WorkflowService {
	if location == nil {
		location = time.UTC
	}
	return &WorkflowService{
		db:          db,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		auditRepo:   auditRepo,
		counterRepo: counterRepo,
		productRepo: productRepo,
		slotRepo:    slotRepo,
		logger:      logger,
		txTimeout:   txTimeout,
		location:    location,
		now:         time.Now,
	}
}

func (s *WorkflowService) clock() time.Time {
	return s.now().In(s.location).Truncate(time.Second)
}

// inTransaction commits only when fn succeeds; any error or timeout rolls everything back.
func (s *WorkflowService) inTransaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	txCtx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(txCtx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		s.logger.Error("failed to begin transaction", zap.Error(err))
		return err
	}
	// MySQL ignores rollback if already committed.
	defer tx.Rollback()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("failed to commit transaction", zap.Error(err))
		return err
	}

	return nil
}

func (s *WorkflowService) Create(ctx context.Context, actor domain.Identity, input dto.CreateOrderInput) (*domain.Order, error) {
	details := append(validateCustomerName(input.CustomerName), validateItems(input.Items)...)
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	items := sortedItems(input.Items)
	var order *domain.Order

	err := s.inTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if input.DeliverySlotID != nil {
			if err := s.checkSlot(ctx, tx, *input.DeliverySlotID); err != nil {
				return err
			}
		}

		products, err := s.loadProducts(ctx, tx, items)
		if err != nil {
			return err
		}

		folioNumber, err := s.counterRepo.Next(ctx, tx)
		if err != nil {
			return err
		}

		createdAt := s.clock()
		order = &domain.Order{
			FolioNumber:    folioNumber,
			Folio:          domain.BuildFolio(folioNumber, createdAt, actor.Name),
			CustomerName:   strings.TrimSpace(input.CustomerName),
			Status:         domain.OrderStatusPending,
			CreatedBy:      actor.Name,
			CreatedAt:      createdAt,
			UpdatedBy:      actor.Name,
			UpdatedAt:      createdAt,
			DeliverySlotID: input.DeliverySlotID,
		}

		order.ID, err = s.orderRepo.Insert(ctx, tx, order)
		if err != nil {
			return err
		}

		if order.Items, err = s.insertItems(ctx, tx, order.ID, items, products); err != nil {
			return err
		}

		audit, err := s.appendAudit(ctx, tx, order.ID, domain.AuditActionCreate, actor, createdAt, input.Note)
		if err != nil {
			return err
		}
		order.Audits = []domain.OrderAudit{audit}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Uint("orderId", order.ID),
		zap.String("folio", order.Folio),
		zap.Int("itemCount", len(order.Items)),
		zap.String("actor", actor.Name),
	)

	return order, nil
}

// Edit replaces the header fields present in input and, when Items is set,
// deletes every line and inserts the new set.
func (s *WorkflowService) Edit(ctx context.Context, actor domain.Identity, orderID uint, input dto.EditOrderInput) (*domain.Order, error) {
	if input.CustomerName == nil && input.Items == nil {
		return nil, apperrors.NewValidationError("nothing to edit", apperrors.ValidationDetail{
			Field:   "body",
			Message: "customerName or items must be provided",
		})
	}

	var details []apperrors.ValidationDetail
	if input.CustomerName != nil {
		details = append(details, validateCustomerName(*input.CustomerName)...)
	}
	if input.Items != nil {
		details = append(details, validateItems(input.Items)...)
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	var order *domain.Order

	err := s.inTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		order, err = s.lockEditable(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if input.CustomerName != nil {
			order.CustomerName = strings.TrimSpace(*input.CustomerName)
		}

		if input.Items != nil {
			items := sortedItems(input.Items)
			products, err := s.loadProducts(ctx, tx, items)
			if err != nil {
				return err
			}

			removed, err := s.itemRepo.DeleteByOrder(ctx, tx, order.ID)
			if err != nil {
				return err
			}
			s.logger.Debug("order items replaced", zap.Uint("orderId", order.ID), zap.Int64("removed", removed), zap.Int("added", len(items)))

			if order.Items, err = s.insertItems(ctx, tx, order.ID, items, products); err != nil {
				return err
			}
		} else if order.Items, err = s.itemRepo.FindByOrderTx(ctx, tx, order.ID); err != nil {
			return err
		}

		return s.stampEdit(ctx, tx, order, actor, input.Note)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order edited", zap.Uint("orderId", order.ID), zap.String("folio", order.Folio), zap.String("actor", actor.Name))
	return order, nil
}

// PatchQuantities changes the quantity of existing lines without touching the rest of the order.
func (s *WorkflowService) PatchQuantities(ctx context.Context, actor domain.Identity, orderID uint, patches []dto.QuantityPatch, note *string) (*domain.Order, error) {
	if details := validatePatches(patches); len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	sorted := make([]dto.QuantityPatch, len(patches))
	copy(sorted, patches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })

	var order *domain.Order

	err := s.inTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		order, err = s.lockEditable(ctx, tx, orderID)
		if err != nil {
			return err
		}

		for _, patch := range sorted {
			if err := s.itemRepo.UpdateQuantity(ctx, tx, order.ID, patch.ItemID, patch.Quantity); err != nil {
				return err
			}
		}

		if order.Items, err = s.itemRepo.FindByOrderTx(ctx, tx, order.ID); err != nil {
			return err
		}

		return s.stampEdit(ctx, tx, order, actor, note)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order quantities patched", zap.Uint("orderId", order.ID), zap.Int("patched", len(sorted)), zap.String("actor", actor.Name))
	return order, nil
}

// Deliver consumes stock for every line of a pending order. A second delivery
// returns the stored order and reports alreadyDelivered without writing anything.
func (s *WorkflowService) Deliver(ctx context.Context, actor domain.Identity, orderID uint, input dto.DeliverOrderInput) (*domain.Order, bool, error) {
	var (
		order            *domain.Order
		alreadyDelivered bool
	)

	err := s.inTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		order, err = s.lockActive(ctx, tx, orderID)
		if err != nil {
			return err
		}

		if order.Items, err = s.itemRepo.FindByOrderTx(ctx, tx, order.ID); err != nil {
			return err
		}

		if order.IsDelivered() {
			alreadyDelivered = true
			return nil
		}

		lockOrder, demand := demandByProduct(order.Items)

		var shortages []apperrors.StockShortage
		for _, productID := range lockOrder {
			product, err := s.productRepo.FindByIDForUpdate(ctx, tx, productID)
			if err != nil {
				return err
			}
			if !product.HasStockFor(demand[productID]) {
				shortages = append(shortages, apperrors.StockShortage{
					ProductID: productID,
					Requested: demand[productID],
					Available: product.Stock,
				})
			}
		}

		if len(shortages) > 0 {
			s.logger.Warn("delivery rejected for insufficient stock",
				zap.Uint("orderId", order.ID),
				zap.String("folio", order.Folio),
				zap.Int("shortCount", len(shortages)),
			)
			return apperrors.NewInsufficientStockError(shortages...)
		}

		for _, productID := range lockOrder {
			if err := s.productRepo.DecrementStock(ctx, tx, productID, demand[productID]); err != nil {
				return err
			}
		}

		now := s.clock()
		deliveredAt := now
		if input.DeliveredAt != nil {
			deliveredAt = input.DeliveredAt.In(s.location).Truncate(time.Second)
		}
		deliveredBy := actor.Name

		order.Status = domain.OrderStatusDelivered
		order.DeliveredAt = &deliveredAt
		order.DeliveredPlace = trimmedOrNil(input.DeliveredPlace)
		order.DeliveredBy = &deliveredBy
		order.UpdatedBy = actor.Name
		order.UpdatedAt = now

		if err := s.orderRepo.MarkDelivered(ctx, tx, order); err != nil {
			return err
		}

		_, err = s.appendAudit(ctx, tx, order.ID, domain.AuditActionDeliver, actor, now, input.Note)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if alreadyDelivered {
		s.logger.Info("order already delivered", zap.Uint("orderId", order.ID), zap.String("folio", order.Folio))
	} else {
		s.logger.Info("order delivered", zap.Uint("orderId", order.ID), zap.String("folio", order.Folio), zap.String("actor", actor.Name))
	}

	return order, alreadyDelivered, nil
}

// Delete soft deletes an order. Stock consumed by a delivered order is not restored.
func (s *WorkflowService) Delete(ctx context.Context, actor domain.Identity, orderID uint, note *string) (*domain.Order, error) {
	var order *domain.Order

	err := s.inTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		order, err = s.lockActive(ctx, tx, orderID)
		if err != nil {
			return err
		}

		now := s.clock()
		if err := s.orderRepo.SoftDelete(ctx, tx, order.ID, actor.Name, now); err != nil {
			return err
		}
		order.DeletedAt = &now
		order.UpdatedBy = actor.Name
		order.UpdatedAt = now

		_, err = s.appendAudit(ctx, tx, order.ID, domain.AuditActionDelete, actor, now, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order deleted", zap.Uint("orderId", order.ID), zap.String("folio", order.Folio), zap.String("actor", actor.Name))
	return order, nil
}

func (s *WorkflowService) checkSlot(ctx context.Context, tx *sql.Tx, slotID uint) error {
	slot, err := s.slotRepo.FindByIDTx(ctx, tx, slotID)
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return apperrors.NewInvalidSlotError(slotID, fmt.Sprintf("delivery slot %d does not exist", slotID))
	}
	if err != nil {
		return err
	}
	if !slot.Enabled {
		return apperrors.NewInvalidSlotError(slotID, fmt.Sprintf("delivery slot %d is disabled", slotID))
	}
	return nil
}

// loadProducts reads the live catalog rows the new lines snapshot. Missing products abort the operation.
func (s *WorkflowService) loadProducts(ctx context.Context, tx *sql.Tx, items []dto.OrderItemInput) (map[int]domain.Product, error) {
	found, err := s.productRepo.FindByIDsTx(ctx, tx, productIDs(items))
	if err != nil {
		return nil, err
	}

	products := make(map[int]domain.Product, len(found))
	for _, p := range found {
		products[p.ID] = p
	}

	for _, item := range items {
		if _, ok := products[item.ProductID]; !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", item.ProductID))
		}
	}

	return products, nil
}

func (s *WorkflowService) insertItems(ctx context.Context, tx *sql.Tx, orderID uint, items []dto.OrderItemInput, products map[int]domain.Product) ([]domain.OrderItem, error) {
	inserted := make([]domain.OrderItem, 0, len(items))

	for _, input := range items {
		product := products[input.ProductID]

		unitPrice := product.Price
		if input.UnitPrice != nil {
			unitPrice = *input.UnitPrice
		}

		unit := strings.TrimSpace(input.Unit)
		if unit == "" {
			unit = domain.DefaultUnit
		}

		item := domain.OrderItem{
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   unitPrice,
			Quantity:    input.Quantity,
			Unit:        unit,
		}

		id, err := s.itemRepo.Insert(ctx, tx, item)
		if err != nil {
			s.logger.Error("failed to insert order item", zap.Uint("orderId", orderID), zap.Int("productId", input.ProductID), zap.Error(err))
			return nil, err
		}
		item.ID = id

		inserted = append(inserted, item)
	}

	return inserted, nil
}

// lockActive locks the order row; soft-deleted orders are reported as missing.
func (s *WorkflowService) lockActive(ctx context.Context, tx *sql.Tx, orderID uint) (*domain.Order, error) {
	order, err := s.orderRepo.FindByIDForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsDeleted() {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", orderID))
	}
	return order, nil
}

func (s *WorkflowService) lockEditable(ctx context.Context, tx *sql.Tx, orderID uint) (*domain.Order, error) {
	order, err := s.lockActive(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsDelivered() {
		return nil, apperrors.NewInvalidStateError("delivered orders cannot be edited", order.Status)
	}
	return order, nil
}

func (s *WorkflowService) stampEdit(ctx context.Context, tx *sql.Tx, order *domain.Order, actor domain.Identity, note *string) error {
	now := s.clock()
	order.UpdatedBy = actor.Name
	order.UpdatedAt = now

	if err := s.orderRepo.UpdateHeader(ctx, tx, order); err != nil {
		return err
	}

	_, err := s.appendAudit(ctx, tx, order.ID, domain.AuditActionEdit, actor, now, note)
	return err
}

func (s *WorkflowService) appendAudit(ctx context.Context, tx *sql.Tx, orderID uint, action domain.AuditAction, actor domain.Identity, at time.Time, note *string) (domain.OrderAudit, error) {
	audit := domain.OrderAudit{
		OrderID:   orderID,
		Action:    action,
		UserName:  actor.Name,
		CreatedAt: at,
		Note:      trimmedOrNil(note),
	}

	id, err := s.auditRepo.Insert(ctx, tx, audit)
	if err != nil {
		return domain.OrderAudit{}, err
	}
	audit.ID = id

	return audit, nil
}
