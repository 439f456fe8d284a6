package custom_error

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("sku", "is required"), http.StatusBadRequest},
		{"insufficient", &InsufficientStockError{SKU: "A", Requested: 3, Available: 1}, http.StatusConflict},
		{"conflict", &ConflictError{Message: "reserved"}, http.StatusConflict},
		{"not found", NewNotFound("reservation", "r1"), http.StatusNotFound},
		{"abort caused by not found", Abort("convert", NewNotFound("inventory unit", "u1")), http.StatusNotFound},
		{"plain abort", Abort("convert", errors.New("connection reset")), http.StatusConflict},
		{"wrapped validation", fmt.Errorf("create: %w", NewValidationError("quantity", "must be positive")), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestAbortDoesNotDoubleWrap(t *testing.T) {
	inner := Abort("delete_order", errors.New("deadlock"))
	outer := Abort("convert", inner)

	assert.Same(t, inner, outer)
	assert.Nil(t, Abort("noop", nil))

	var abort *TransactionAbortError
	assert.True(t, errors.As(outer, &abort))
	assert.Equal(t, "delete_order", abort.Op)
}

func TestWrapDBError(t *testing.T) {
	var unique *UniqueViolationError
	assert.True(t, errors.As(WrapDBError("duplicate order number", "23505"), &unique))

	var fk *ForeignKeyViolationError
	assert.True(t, errors.As(WrapDBError("unit", "23503"), &fk))

	assert.Contains(t, WrapDBError("odd", "42P01").Error(), "42P01")
}
