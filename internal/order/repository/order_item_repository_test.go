package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mostrador/internal/domain"
	apperrors "mostrador/internal/errors"
)

// Unit Tests

func TestNewMySQLOrderItemRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLOrderItemRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestOrderItemRepository_Insert_Success(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLOrderItemRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO OrderItems (orderId, productId, productName, unitPrice, quantity, unit)")).
		WithArgs(100, 5, "Tornillo", "29.99", 3, "PZA").
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	id, err := repo.Insert(context.Background(), tx, domain.OrderItem{
		OrderID:     100,
		ProductID:   5,
		ProductName: "Tornillo",
		UnitPrice:   decimal.RequireFromString("29.99"),
		Quantity:    3,
		Unit:        "PZA",
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, uint(77), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderItemRepository_Insert_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLOrderItemRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO OrderItems")).
		WillReturnError(errors.New("foreign key violation"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = repo.Insert(context.Background(), tx, domain.OrderItem{OrderID: 1, ProductID: 1, Quantity: 1})
	assert.ErrorContains(t, err, "inserting order item")
}

func TestOrderItemRepository_DeleteByOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLOrderItemRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM OrderItems WHERE orderId = ?")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	deleted, err := repo.DeleteByOrder(context.Background(), tx, 9)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(3), deleted)
}

func TestOrderItemRepository_UpdateQuantity_ItemOfOtherOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLOrderItemRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE OrderItems SET quantity = ? WHERE id = ? AND orderId = ?")).
		WithArgs(4, 50, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.UpdateQuantity(context.Background(), tx, 9, 50, 4)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestOrderItemRepository_FindByOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLOrderItemRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM OrderItems WHERE orderId = ? ORDER BY id")).
		WithArgs(9).
		WillReturnRows(sqlmock.NewRows([]string{"id", "orderId", "productId", "productName", "unitPrice", "quantity", "unit"}).
			AddRow(1, 9, 5, "Tornillo", "10.50", 2, "PZA").
			AddRow(2, 9, 6, "Cable", "3.00", 10, "M"))

	items, err := repo.FindByOrder(context.Background(), 9)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "Tornillo", items[0].ProductName)
	assert.True(t, decimal.RequireFromString("10.50").Equal(items[0].UnitPrice))
	assert.Equal(t, "M", items[1].Unit)
	assert.Equal(t, 10, items[1].Quantity)
}
