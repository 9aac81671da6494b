package errors

import (
	stderrors "errors"
	"fmt"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	var nf *NotFoundError
	if stderrors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}

// InvalidStateError is returned when the order status does not allow the operation.
type InvalidStateError struct {
	Message string
	Status  string
}

func (e *InvalidStateError) Error() string {
	return e.Message
}

func NewInvalidStateError(message string, status string) *InvalidStateError {
	return &InvalidStateError{Message: message, Status: status}
}

func IsInvalidStateError(err error) (*InvalidStateError, bool) {
	var ise *InvalidStateError
	if stderrors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}

// InvalidSlotError is returned when a referenced delivery slot is missing or disabled.
type InvalidSlotError struct {
	Message string
	SlotID  uint
}

func (e *InvalidSlotError) Error() string {
	return e.Message
}

func NewInvalidSlotError(slotID uint, message string) *InvalidSlotError {
	return &InvalidSlotError{Message: message, SlotID: slotID}
}

func IsInvalidSlotError(err error) (*InvalidSlotError, bool) {
	var ise *InvalidSlotError
	if stderrors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}

type StockShortage struct {
	ProductID int `json:"productId"`
	Requested int `json:"requested"`
	Available int `json:"available"`
}

type InsufficientStockError struct {
	Message   string
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	return e.Message
}

func NewInsufficientStockError(shortages ...StockShortage) *InsufficientStockError {
	return &InsufficientStockError{
		Message:   fmt.Sprintf("insufficient stock for %d product(s)", len(shortages)),
		Shortages: shortages,
	}
}

func IsInsufficientStockError(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	if stderrors.As(err, &ise) {
		return ise, true
	}
	return nil, false
}

type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func IsUnauthorizedError(err error) (*UnauthorizedError, bool) {
	var ue *UnauthorizedError
	if stderrors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	var fe *ForbiddenError
	if stderrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

type DeadlockError struct {
	Message string
}

func (e *DeadlockError) Error() string {
	return e.Message
}

func NewDeadlockError(message string) *DeadlockError {
	return &DeadlockError{Message: message}
}

func IsDeadlockError(err error) (*DeadlockError, bool) {
	var de *DeadlockError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}
