package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mostrador/internal/domain"
	"mostrador/internal/errors"
)

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

type ListFilter struct {
	Limit  int
	Offset int
	Status string
}

const orderColumns = `id, folioNumber, folio, customerName, status, createdBy, createdAt,
		       updatedBy, updatedAt, deletedAt, deliveredAt, deliveredPlace, deliveredBy, deliverySlotId`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID, &order.FolioNumber, &order.Folio, &order.CustomerName, &order.Status,
		&order.CreatedBy, &order.CreatedAt, &order.UpdatedBy, &order.UpdatedAt,
		&order.DeletedAt, &order.DeliveredAt, &order.DeliveredPlace, &order.DeliveredBy,
		&order.DeliverySlotID,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *MySQLOrderRepository) Insert(ctx context.Context, tx *sql.Tx, order *domain.Order) (uint, error) {
	query := `
		INSERT INTO Orders (folioNumber, folio, customerName, status, createdBy, createdAt,
		                    updatedBy, updatedAt, deliverySlotId)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		order.FolioNumber, order.Folio, order.CustomerName, order.Status,
		order.CreatedBy, order.CreatedAt, order.UpdatedBy, order.UpdatedAt, order.DeliverySlotID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

// FindByID returns an active order; soft-deleted orders are reported as not found.
func (r *MySQLOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM Orders WHERE id = ? AND deletedAt IS NULL`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	return order, nil
}

// FindByIDForUpdate locks the order row, deleted or not, until tx ends.
func (r *MySQLOrderRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id uint) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM Orders WHERE id = ? FOR UPDATE`

	order, err := scanOrder(tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("locking order: %w", err)
	}

	return order, nil
}

func (r *MySQLOrderRepository) List(ctx context.Context, filter ListFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM Orders WHERE deletedAt IS NULL`
	args := []any{}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY createdAt DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order rows: %w", err)
	}

	return orders, nil
}

func (r *MySQLOrderRepository) UpdateHeader(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `UPDATE Orders SET customerName = ?, updatedBy = ?, updatedAt = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, order.CustomerName, order.UpdatedBy, order.UpdatedAt, order.ID)
	if err != nil {
		return fmt.Errorf("updating order header: %w", err)
	}

	return requireOneRow(result, order.ID)
}

func (r *MySQLOrderRepository) MarkDelivered(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	query := `
		UPDATE Orders
		SET status = ?, deliveredAt = ?, deliveredPlace = ?, deliveredBy = ?, updatedBy = ?, updatedAt = ?
		WHERE id = ? AND status = ?
	`

	result, err := tx.ExecContext(ctx, query,
		domain.OrderStatusDelivered, order.DeliveredAt, order.DeliveredPlace, order.DeliveredBy,
		order.UpdatedBy, order.UpdatedAt, order.ID, domain.OrderStatusPending,
	)
	if err != nil {
		return fmt.Errorf("marking order delivered: %w", err)
	}

	return requireOneRow(result, order.ID)
}

func (r *MySQLOrderRepository) SoftDelete(ctx context.Context, tx *sql.Tx, id uint, deletedBy string, deletedAt time.Time) error {
	query := `UPDATE Orders SET deletedAt = ?, updatedBy = ?, updatedAt = ? WHERE id = ? AND deletedAt IS NULL`

	result, err := tx.ExecContext(ctx, query, deletedAt, deletedBy, deletedAt, id)
	if err != nil {
		return fmt.Errorf("soft deleting order: %w", err)
	}

	return requireOneRow(result, id)
}

func requireOneRow(result sql.Result, id uint) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}

	return nil
}
