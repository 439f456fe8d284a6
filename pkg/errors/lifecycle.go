package custom_error

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError rejects bad input before any mutation happens.
type ValidationError struct {
	Field   string `json:"property"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type InsufficientStockError struct {
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

// ConflictError asks the operator for an explicit decision. Details carries
// whatever the operator needs to decide, e.g. a bulk sale classification.
type ConflictError struct {
	Message string      `json:"message"`
	SKUs    []string    `json:"skus,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func (e *ConflictError) Error() string {
	if len(e.SKUs) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(e.SKUs, ", "))
}

// TransactionAbortError means a multi-document operation rolled back as a whole.
type TransactionAbortError struct {
	Op  string
	Err error
}

func (e *TransactionAbortError) Error() string {
	return fmt.Sprintf("%s aborted, nothing was written: %v", e.Op, e.Err)
}

func (e *TransactionAbortError) Unwrap() error {
	return e.Err
}

// Abort wraps err unless it is nil or already an abort.
func Abort(op string, err error) error {
	if err == nil {
		return nil
	}
	var abort *TransactionAbortError
	if errors.As(err, &abort) {
		return err
	}
	return &TransactionAbortError{Op: op, Err: err}
}

// NotFoundError is raised when a referenced document vanished, usually because
// another operator got there first.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// HTTPStatus maps the error taxonomy to a response code. The most specific
// cause wins, so an aborted conversion caused by a vanished unit is a 404.
func HTTPStatus(err error) int {
	var (
		validation   *ValidationError
		insufficient *InsufficientStockError
		conflict     *ConflictError
		notFound     *NotFoundError
		unique       *UniqueViolationError
		abort        *TransactionAbortError
	)

	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &insufficient), errors.As(err, &conflict), errors.As(err, &unique):
		return http.StatusConflict
	case errors.As(err, &abort):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
