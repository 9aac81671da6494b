package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"mostrador/internal/domain"
	"mostrador/internal/errors"
)

type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

const productColumns = `id, name, price, category, imageUrl, description, details, rating, stock, createdAt, updatedAt`

type rowScanner interface {
	Scan(dest ...any) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p           domain.Product
		description sql.NullString
		details     []byte
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Price, &p.Category, &p.ImageURL, &description, &details,
		&p.Rating, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Description = description.String
	p.Details = []string{}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &p.Details); err != nil {
			return nil, fmt.Errorf("decoding details of product %d: %w", p.ID, err)
		}
	}

	return &p, nil
}

func (r *MySQLRepository) List(ctx context.Context, limit int, offset int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM Product ORDER BY name, id LIMIT ? OFFSET ?`
	return r.query(ctx, r.db, query, limit, offset)
}

func (r *MySQLRepository) FindByIDs(ctx context.Context, ids []int) ([]domain.Product, error) {
	return r.findByIDs(ctx, r.db, ids)
}

// FindByIDsTx reads products inside tx without locking them.
func (r *MySQLRepository) FindByIDsTx(ctx context.Context, tx *sql.Tx, ids []int) ([]domain.Product, error) {
	return r.findByIDs(ctx, tx, ids)
}

func (r *MySQLRepository) findByIDs(ctx context.Context, q querier, ids []int) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`SELECT `+productColumns+` FROM Product WHERE id IN (%s) ORDER BY id`,
		strings.Join(placeholders, ", "),
	)

	return r.query(ctx, q, query, args...)
}

func (r *MySQLRepository) query(ctx context.Context, q querier, query string, args ...any) ([]domain.Product, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

// FindByIDForUpdate locks the product row until tx ends.
func (r *MySQLRepository) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, productID int) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM Product WHERE id = ? FOR UPDATE`

	p, err := scanProduct(tx.QueryRowContext(ctx, query, productID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("product with id %d not found", productID))
	}
	if err != nil {
		return nil, fmt.Errorf("locking product: %w", err)
	}

	return p, nil
}

// DecrementStock never lets stock go negative; a short row is reported as insufficient stock.
func (r *MySQLRepository) DecrementStock(ctx context.Context, tx *sql.Tx, productID int, quantity int) error {
	query := `UPDATE Product SET stock = stock - ? WHERE id = ? AND stock >= ?`

	result, err := tx.ExecContext(ctx, query, quantity, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrementing stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewInsufficientStockError(errors.StockShortage{ProductID: productID, Requested: quantity})
	}

	return nil
}
