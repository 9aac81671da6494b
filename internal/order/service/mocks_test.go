package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mostrador/internal/domain"
	apperrors "mostrador/internal/errors"
)

type mockOrderRepository struct {
	InsertFunc            func(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error)
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error)
	UpdateHeaderFunc      func(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	MarkDeliveredFunc     func(ctx context.Context, tx *sql.Tx, order *domain.Order) error
	SoftDeleteFunc        func(ctx context.Context, tx *sql.Tx, id uint, deletedBy string, deletedAt time.Time) error
}

func (m *mockOrderRepository) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error) {
	return m.InsertFunc(ctx, tx, order)
}

func (m *mockOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, id)
}

func (m *mockOrderRepository) UpdateHeader(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	return m.UpdateHeaderFunc(ctx, tx, order)
}

func (m *mockOrderRepository) MarkDelivered(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	return m.MarkDeliveredFunc(ctx, tx, order)
}

func (m *mockOrderRepository) SoftDelete(ctx context.Context, tx *sql.Tx, id uint, deletedBy string, deletedAt time.Time) error {
	return m.SoftDeleteFunc(ctx, tx, id, deletedBy, deletedAt)
}

type mockOrderItemRepository struct {
	InsertFunc         func(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error)
	DeleteByOrderFunc  func(ctx context.Context, tx *sql.Tx, orderID uint) (int64, error)
	UpdateQuantityFunc func(ctx context.Context, tx *sql.Tx, orderID uint, itemID uint, quantity int) error
	FindByOrderTxFunc  func(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.OrderItem, error)
}

func (m *mockOrderItemRepository) Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error) {
	return m.InsertFunc(ctx, tx, item)
}

func (m *mockOrderItemRepository) DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID uint) (int64, error) {
	return m.DeleteByOrderFunc(ctx, tx, orderID)
}

func (m *mockOrderItemRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, orderID uint, itemID uint, quantity int) error {
	return m.UpdateQuantityFunc(ctx, tx, orderID, itemID, quantity)
}

func (m *mockOrderItemRepository) FindByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.OrderItem, error) {
	return m.FindByOrderTxFunc(ctx, tx, orderID)
}

type mockOrderAuditRepository struct {
	InsertFunc func(ctx context.Context, tx *sql.Tx, audit domain.OrderAudit) (uint, error)
}

func (m *mockOrderAuditRepository) Insert(ctx context.Context, tx *sql.Tx, audit domain.OrderAudit) (uint, error) {
	return m.InsertFunc(ctx, tx, audit)
}

type mockCounterRepository struct {
	NextFunc func(ctx context.Context, tx *sql.Tx) (int, error)
}

func (m *mockCounterRepository) Next(ctx context.Context, tx *sql.Tx) (int, error) {
	return m.NextFunc(ctx, tx)
}

type mockProductRepository struct {
	FindByIDsTxFunc       func(ctx context.Context, tx *sql.Tx, ids []int) ([]domain.Product, error)
	FindByIDForUpdateFunc func(ctx context.Context, tx *sql.Tx, productID int) (*domain.Product, error)
	DecrementStockFunc    func(ctx context.Context, tx *sql.Tx, productID int, quantity int) error
}

func (m *mockProductRepository) FindByIDsTx(ctx context.Context, tx *sql.Tx, ids []int) ([]domain.Product, error) {
	return m.FindByIDsTxFunc(ctx, tx, ids)
}

func (m *mockProductRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, productID int) (*domain.Product, error) {
	return m.FindByIDForUpdateFunc(ctx, tx, productID)
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, tx *sql.Tx, productID int, quantity int) error {
	return m.DecrementStockFunc(ctx, tx, productID, quantity)
}

type mockSlotRepository struct {
	FindByIDTxFunc func(ctx context.Context, tx *sql.Tx, slotID uint) (*domain.DeliverySlot, error)
}

func (m *mockSlotRepository) FindByIDTx(ctx context.Context, tx *sql.Tx, slotID uint) (*domain.DeliverySlot, error) {
	return m.FindByIDTxFunc(ctx, tx, slotID)
}

// fixture backs the mocks with in-memory rows. Writes land immediately, so
// tests assert on sqlmock commit/rollback expectations for atomicity.
type fixture struct {
	mock        sqlmock.Sqlmock
	svc         *WorkflowService
	orders      map[uint]*domain.Order
	items       map[uint][]domain.OrderItem
	audits      []domain.OrderAudit
	products    map[int]*domain.Product
	slots       map[uint]*domain.DeliverySlot
	counter     int
	nextID      uint
	decremented map[int]int

	orderRepo   *mockOrderRepository
	itemRepo    *mockOrderItemRepository
	auditRepo   *mockOrderAuditRepository
	counterRepo *mockCounterRepository
	productRepo *mockProductRepository
	slotRepo    *mockSlotRepository
}

var (
	testNow   = time.Date(2024, 3, 5, 16, 30, 0, 0, time.UTC)
	admin     = domain.Identity{UserID: 1, Name: "admin", Role: domain.RoleAdmin}
	vendedora = domain.Identity{UserID: 2, Name: "Ana López", Role: domain.RoleSalesperson}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		mock:        mock,
		orders:      map[uint]*domain.Order{},
		items:       map[uint][]domain.OrderItem{},
		products:    map[int]*domain.Product{},
		slots:       map[uint]*domain.DeliverySlot{},
		decremented: map[int]int{},
	}

	f.orderRepo = &mockOrderRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error) {
			id := f.id()
			stored := *order
			stored.ID = id
			f.orders[id] = &stored
			return id, nil
		},
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
			order, ok := f.orders[id]
			if !ok {
				return nil, apperrors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
			}
			copied := *order
			return &copied, nil
		},
		UpdateHeaderFunc: func(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
			stored := f.orders[order.ID]
			stored.CustomerName = order.CustomerName
			stored.UpdatedBy = order.UpdatedBy
			stored.UpdatedAt = order.UpdatedAt
			return nil
		},
		MarkDeliveredFunc: func(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
			stored := f.orders[order.ID]
			stored.Status = order.Status
			stored.DeliveredAt = order.DeliveredAt
			stored.DeliveredPlace = order.DeliveredPlace
			stored.DeliveredBy = order.DeliveredBy
			return nil
		},
		SoftDeleteFunc: func(ctx context.Context, tx *sql.Tx, id uint, deletedBy string, deletedAt time.Time) error {
			f.orders[id].DeletedAt = &deletedAt
			return nil
		},
	}

	f.itemRepo = &mockOrderItemRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error) {
			item.ID = f.id()
			f.items[item.OrderID] = append(f.items[item.OrderID], item)
			return item.ID, nil
		},
		DeleteByOrderFunc: func(ctx context.Context, tx *sql.Tx, orderID uint) (int64, error) {
			n := len(f.items[orderID])
			delete(f.items, orderID)
			return int64(n), nil
		},
		UpdateQuantityFunc: func(ctx context.Context, tx *sql.Tx, orderID uint, itemID uint, quantity int) error {
			for i, item := range f.items[orderID] {
				if item.ID == itemID {
					f.items[orderID][i].Quantity = quantity
					return nil
				}
			}
			return apperrors.NewNotFoundError(fmt.Sprintf("item %d not found in order %d", itemID, orderID))
		},
		FindByOrderTxFunc: func(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.OrderItem, error) {
			return append([]domain.OrderItem{}, f.items[orderID]...), nil
		},
	}

	f.auditRepo = &mockOrderAuditRepository{
		InsertFunc: func(ctx context.Context, tx *sql.Tx, audit domain.OrderAudit) (uint, error) {
			audit.ID = f.id()
			f.audits = append(f.audits, audit)
			return audit.ID, nil
		},
	}

	f.counterRepo = &mockCounterRepository{
		NextFunc: func(ctx context.Context, tx *sql.Tx) (int, error) {
			f.counter++
			return f.counter, nil
		},
	}

	f.productRepo = &mockProductRepository{
		FindByIDsTxFunc: func(ctx context.Context, tx *sql.Tx, ids []int) ([]domain.Product, error) {
			var found []domain.Product
			for _, id := range ids {
				if p, ok := f.products[id]; ok {
					found = append(found, *p)
				}
			}
			return found, nil
		},
		FindByIDForUpdateFunc: func(ctx context.Context, tx *sql.Tx, productID int) (*domain.Product, error) {
			p, ok := f.products[productID]
			if !ok {
				return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", productID))
			}
			copied := *p
			return &copied, nil
		},
		DecrementStockFunc: func(ctx context.Context, tx *sql.Tx, productID int, quantity int) error {
			f.products[productID].Stock -= quantity
			f.decremented[productID] += quantity
			return nil
		},
	}

	f.slotRepo = &mockSlotRepository{
		FindByIDTxFunc: func(ctx context.Context, tx *sql.Tx, slotID uint) (*domain.DeliverySlot, error) {
			slot, ok := f.slots[slotID]
			if !ok {
				return nil, apperrors.NewNotFoundError(fmt.Sprintf("delivery slot with id %d not found", slotID))
			}
			return slot, nil
		},
	}

	f.svc = NewWorkflowService(db, f.orderRepo, f.itemRepo, f.auditRepo, f.counterRepo, f.productRepo, f.slotRepo,
		zap.NewNop(), 5*time.Second, time.UTC)
	f.svc.now = func() time.Time { return testNow }

	return f
}

func (f *fixture) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fixture) addProduct(id int, name string, price string, stock int) {
	f.products[id] = &domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Stock: stock}
}

func (f *fixture) expectCommit() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *fixture) expectRollback() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

func (f *fixture) auditsFor(orderID uint) []domain.OrderAudit {
	var out []domain.OrderAudit
	for _, a := range f.audits {
		if a.OrderID == orderID {
			out = append(out, a)
		}
	}
	return out
}
