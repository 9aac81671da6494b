package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"mostrador/internal/domain"
	"mostrador/internal/errors"
)

type MySQLSlotRepository struct {
	db *sql.DB
}

func NewMySQLSlotRepository(db *sql.DB) *MySQLSlotRepository {
	return &MySQLSlotRepository{db: db}
}

// FindByIDTx reads a slot inside tx. Disabled slots are returned as well;
// callers decide whether they are usable.
func (r *MySQLSlotRepository) FindByIDTx(ctx context.Context, tx *sql.Tx, slotID uint) (*domain.DeliverySlot, error) {
	query := `
		SELECT id, startsAt, endsAt, capacity, enabled
		FROM DeliverySlots
		WHERE id = ?
	`

	var slot domain.DeliverySlot
	err := tx.QueryRowContext(ctx, query, slotID).Scan(
		&slot.ID, &slot.StartsAt, &slot.EndsAt, &slot.Capacity, &slot.Enabled,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("delivery slot with id %d not found", slotID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying delivery slot by id: %w", err)
	}

	return &slot, nil
}

// ListUpcoming returns enabled slots that have not ended before from.
func (r *MySQLSlotRepository) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]domain.DeliverySlot, error) {
	query := `
		SELECT id, startsAt, endsAt, capacity, enabled
		FROM DeliverySlots
		WHERE enabled = 1 AND endsAt >= ?
		ORDER BY startsAt, id
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("querying delivery slots: %w", err)
	}
	defer rows.Close()

	slots := []domain.DeliverySlot{}
	for rows.Next() {
		var slot domain.DeliverySlot
		if err := rows.Scan(&slot.ID, &slot.StartsAt, &slot.EndsAt, &slot.Capacity, &slot.Enabled); err != nil {
			return nil, fmt.Errorf("scanning delivery slot row: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery slot rows: %w", err)
	}

	return slots, nil
}
