package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mostrador/internal/errors"
)

var slotColumns = []string{"id", "startsAt", "endsAt", "capacity", "enabled"}

func TestSlotRepository_FindByIDTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLSlotRepository(db)
	start := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM DeliverySlots WHERE id = ?")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows(slotColumns).AddRow(4, start, start.Add(2*time.Hour), 10, false))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	slot, err := repo.FindByIDTx(context.Background(), tx, 4)
	require.NoError(t, err)

	assert.Equal(t, uint(4), slot.ID)
	assert.False(t, slot.Enabled)
	assert.Equal(t, 10, slot.Capacity)
	assert.True(t, start.Add(2*time.Hour).Equal(slot.EndsAt))
}

func TestSlotRepository_FindByIDTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLSlotRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM DeliverySlots")).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	slot, err := repo.FindByIDTx(context.Background(), tx, 99)
	assert.Nil(t, slot)
	_, ok := errors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestSlotRepository_ListUpcoming(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLSlotRepository(db)
	now := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE enabled = 1 AND endsAt >= ? ORDER BY startsAt, id LIMIT ?")).
		WithArgs(now, 20).
		WillReturnRows(sqlmock.NewRows(slotColumns).
			AddRow(1, now, now.Add(time.Hour), 5, true).
			AddRow(2, now.Add(time.Hour), now.Add(2*time.Hour), 5, true))

	slots, err := repo.ListUpcoming(context.Background(), now, 20)
	require.NoError(t, err)

	require.Len(t, slots, 2)
	assert.Equal(t, uint(2), slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
