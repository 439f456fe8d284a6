package middleware

import (
	"errors"
	"net/http"

	custom_error "semprejoias/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AbortWithError writes the typed error as JSON with the status it maps to.
// Server errors are logged; their details never reach the client.
func AbortWithError(c *gin.Context, logger *zap.Logger, message string, err error) {
	status := custom_error.HTTPStatus(err)
	body := gin.H{"error": message}

	var (
		validation   *custom_error.ValidationError
		insufficient *custom_error.InsufficientStockError
		conflict     *custom_error.ConflictError
		abort        *custom_error.TransactionAbortError
	)

	if errors.As(err, &abort) {
		recordAbort(abort.Op)
	}

	switch {
	case status == http.StatusInternalServerError:
		logger.Error(message, zap.Error(err))
		c.AbortWithStatusJSON(status, body)
		return
	case errors.As(err, &validation):
		body["details"] = validation
	case errors.As(err, &insufficient):
		body["details"] = insufficient
	case errors.As(err, &conflict):
		body["details"] = conflict
	default:
		body["details"] = err.Error()
	}

	if abort != nil {
		body["aborted"] = abort.Op
	}

	logger.Info(message, zap.Int("status", status), zap.Error(err))
	c.AbortWithStatusJSON(status, body)
}
