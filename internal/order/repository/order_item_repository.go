package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mostrador/internal/domain"
	"mostrador/internal/errors"
)

type MySQLOrderItemRepository struct {
	db *sql.DB
}

func NewMySQLOrderItemRepository(db *sql.DB) *MySQLOrderItemRepository {
	return &MySQLOrderItemRepository{db: db}
}

func (r *MySQLOrderItemRepository) Insert(ctx context.Context, tx *sql.Tx, item domain.OrderItem) (uint, error) {
	query := `
		INSERT INTO OrderItems (orderId, productId, productName, unitPrice, quantity, unit)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.Unit,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order item: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

func (r *MySQLOrderItemRepository) DeleteByOrder(ctx context.Context, tx *sql.Tx, orderID uint) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM OrderItems WHERE orderId = ?`, orderID)
	if err != nil {
		return 0, fmt.Errorf("deleting order items: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}

func (r *MySQLOrderItemRepository) UpdateQuantity(ctx context.Context, tx *sql.Tx, orderID uint, itemID uint, quantity int) error {
	query := `UPDATE OrderItems SET quantity = ? WHERE id = ? AND orderId = ?`

	result, err := tx.ExecContext(ctx, query, quantity, itemID, orderID)
	if err != nil {
		return fmt.Errorf("updating order item quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("item %d not found in order %d", itemID, orderID))
	}

	return nil
}

func (r *MySQLOrderItemRepository) FindByOrder(ctx context.Context, orderID uint) ([]domain.OrderItem, error) {
	return r.findByOrder(ctx, r.db, orderID)
}

func (r *MySQLOrderItemRepository) FindByOrderTx(ctx context.Context, tx *sql.Tx, orderID uint) ([]domain.OrderItem, error) {
	return r.findByOrder(ctx, tx, orderID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *MySQLOrderItemRepository) findByOrder(ctx context.Context, q querier, orderID uint) ([]domain.OrderItem, error) {
	query := `
		SELECT id, orderId, productId, productName, unitPrice, quantity, unit
		FROM OrderItems
		WHERE orderId = ?
		ORDER BY id
	`

	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	items := []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.UnitPrice, &item.Quantity, &item.Unit,
		); err != nil {
			return nil, fmt.Errorf("scanning order item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order item rows: %w", err)
	}

	return items, nil
}
