package repository

import (
	"context"
	"database/sql"
	"fmt"

	"mostrador/internal/domain"
)

// MySQLOrderAuditRepository is append-only: audit rows are never updated or deleted.
type MySQLOrderAuditRepository struct {
	db *sql.DB
}

func NewMySQLOrderAuditRepository(db *sql.DB) *MySQLOrderAuditRepository {
	return &MySQLOrderAuditRepository{db: db}
}

func (r *MySQLOrderAuditRepository) Insert(ctx context.Context, tx *sql.Tx, audit domain.OrderAudit) (uint, error) {
	query := `INSERT INTO OrderAudits (orderId, action, userName, createdAt, note) VALUES (?, ?, ?, ?, ?)`

	result, err := tx.ExecContext(ctx, query, audit.OrderID, string(audit.Action), audit.UserName, audit.CreatedAt, audit.Note)
	if err != nil {
		return 0, fmt.Errorf("inserting order audit: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

func (r *MySQLOrderAuditRepository) FindByOrder(ctx context.Context, orderID uint) ([]domain.OrderAudit, error) {
	query := `
		SELECT id, orderId, action, userName, createdAt, note
		FROM OrderAudits
		WHERE orderId = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order audits: %w", err)
	}
	defer rows.Close()

	audits := []domain.OrderAudit{}
	for rows.Next() {
		var audit domain.OrderAudit
		var action string
		if err := rows.Scan(&audit.ID, &audit.OrderID, &action, &audit.UserName, &audit.CreatedAt, &audit.Note); err != nil {
			return nil, fmt.Errorf("scanning order audit row: %w", err)
		}
		audit.Action = domain.AuditAction(action)
		audits = append(audits, audit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order audit rows: %w", err)
	}

	return audits, nil
}
