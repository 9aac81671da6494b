package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError_Creation(t *testing.T) {
	message := "order not found"
	err := NewNotFoundError(message)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
}

func TestNotFoundError_IsNotFoundError(t *testing.T) {
	err := NewNotFoundError("test not found")

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.NotNil(t, notFoundErr)
	assert.Equal(t, "test not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading order: %w", NewNotFoundError("order 7 not found"))

	notFoundErr, ok := IsNotFoundError(err)
	assert.True(t, ok)
	assert.Equal(t, "order 7 not found", notFoundErr.Message)
}

func TestNotFoundError_IsNotFoundError_WithOtherError(t *testing.T) {
	err := errors.New("some other error")

	notFoundErr, ok := IsNotFoundError(err)
	assert.False(t, ok)
	assert.Nil(t, notFoundErr)
}

func TestValidationError_Creation(t *testing.T) {
	message := "validation failed"
	details := []ValidationDetail{
		{Field: "customerName", Message: "customerName is required"},
		{Field: "items", Message: "items must not be empty"},
	}

	err := NewValidationError(message, details...)

	assert.NotNil(t, err)
	assert.Equal(t, message, err.Message)
	assert.Equal(t, message, err.Error())
	assert.Len(t, err.Details, 2)

	ve, ok := IsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, "customerName", ve.Details[0].Field)
}

func TestInvalidStateError(t *testing.T) {
	err := NewInvalidStateError("delivered orders cannot be edited", "DELIVERED")

	ise, ok := IsInvalidStateError(err)
	assert.True(t, ok)
	assert.Equal(t, "DELIVERED", ise.Status)
	assert.Equal(t, "delivered orders cannot be edited", err.Error())

	_, ok = IsNotFoundError(err)
	assert.False(t, ok)
}

func TestInvalidSlotError(t *testing.T) {
	err := fmt.Errorf("create order: %w", NewInvalidSlotError(3, "delivery slot 3 is disabled"))

	ise, ok := IsInvalidSlotError(err)
	assert.True(t, ok)
	assert.Equal(t, uint(3), ise.SlotID)
	assert.Equal(t, "create order: delivery slot 3 is disabled", err.Error())

	_, ok = IsValidationError(err)
	assert.False(t, ok)
}

func TestInsufficientStockError(t *testing.T) {
	err := NewInsufficientStockError(
		StockShortage{ProductID: 1, Requested: 10, Available: 2},
		StockShortage{ProductID: 4, Requested: 3, Available: 0},
	)

	ise, ok := IsInsufficientStockError(err)
	assert.True(t, ok)
	assert.Len(t, ise.Shortages, 2)
	assert.Equal(t, "insufficient stock for 2 product(s)", err.Error())
}

func TestAuthErrors(t *testing.T) {
	_, ok := IsUnauthorizedError(NewUnauthorizedError("missing token"))
	assert.True(t, ok)

	_, ok = IsForbiddenError(NewForbiddenError("role SALESPERSON cannot deliver orders"))
	assert.True(t, ok)

	_, ok = IsForbiddenError(NewUnauthorizedError("missing token"))
	assert.False(t, ok)
}

func TestDeadlockError(t *testing.T) {
	err := NewDeadlockError("max retries exceeded")

	de, ok := IsDeadlockError(err)
	assert.True(t, ok)
	assert.Equal(t, "max retries exceeded", de.Message)
}

func TestInternalError_Creation(t *testing.T) {
	cause := errors.New("database error")
	err := NewInternalError("failed to query database", cause)

	assert.NotNil(t, err)
	assert.Equal(t, "failed to query database", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.Contains(t, err.Error(), "failed to query database")
	assert.Contains(t, err.Error(), "database error")
}

func TestInternalError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewInternalError("wrapper", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestInternalError_NilCause(t *testing.T) {
	err := NewInternalError("no cause", nil)

	assert.Equal(t, "no cause", err.Error())
	assert.Nil(t, err.Unwrap())
}
