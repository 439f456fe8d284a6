package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	custom_error "semprejoias/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantAborted string
		hideDetails bool
	}{
		{"validation", custom_error.NewValidationError("sku", "is required"), http.StatusBadRequest, "", false},
		{"insufficient", &custom_error.InsufficientStockError{SKU: "A", Requested: 3, Available: 1}, http.StatusConflict, "", false},
		{"conflict", &custom_error.ConflictError{Message: "pending reservations", SKUs: []string{"A"}}, http.StatusConflict, "", false},
		{"aborted missing unit", custom_error.Abort("convert_reservation", custom_error.NewNotFound("inventory unit", "u1")), http.StatusNotFound, "convert_reservation", false},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			AbortWithError(c, zap.NewNop(), "Operation failed", tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Operation failed", body["error"])
			if tt.hideDetails {
				assert.NotContains(t, body, "details")
			} else {
				assert.Contains(t, body, "details")
			}
			if tt.wantAborted != "" {
				assert.Equal(t, tt.wantAborted, body["aborted"])
			}
		})
	}
}
