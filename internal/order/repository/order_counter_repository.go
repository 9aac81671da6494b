package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const counterRowID = 1

// MySQLOrderCounterRepository issues folio numbers from the singleton OrderCounter row.
// The row lock taken by Next is held until the enclosing transaction ends, so concurrent
// creations serialize here and a rolled back creation gives its number back.
type MySQLOrderCounterRepository struct {
	db *sql.DB
}

func NewMySQLOrderCounterRepository(db *sql.DB) *MySQLOrderCounterRepository {
	return &MySQLOrderCounterRepository{db: db}
}

func (r *MySQLOrderCounterRepository) Next(ctx context.Context, tx *sql.Tx) (int, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO OrderCounter (id, value) VALUES (?, 0) ON DUPLICATE KEY UPDATE id = id`,
		counterRowID,
	); err != nil {
		return 0, fmt.Errorf("ensuring order counter: %w", err)
	}

	var current int
	if err := tx.QueryRowContext(ctx,
		`SELECT value FROM OrderCounter WHERE id = ? FOR UPDATE`, counterRowID,
	).Scan(&current); err != nil {
		return 0, fmt.Errorf("locking order counter: %w", err)
	}

	next := current + 1
	if _, err := tx.ExecContext(ctx,
		`UPDATE OrderCounter SET value = ? WHERE id = ?`, next, counterRowID,
	); err != nil {
		return 0, fmt.Errorf("advancing order counter: %w", err)
	}

	return next, nil
}
