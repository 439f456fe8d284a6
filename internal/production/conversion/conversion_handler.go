package conversion

import (
	"context"
	"net/http"

	"semprejoias/internal/middleware"
	"semprejoias/pkg/models"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Converter interface {
	Convert(ctx context.Context, req ConvertRequest, actor models.Actor) (*models.ProductionOrder, error)
}

type ConversionHandler struct {
	converter Converter
	logger    *zap.Logger
}

func NewConversionHandler(c Converter, logger *zap.Logger) *ConversionHandler {
	return &ConversionHandler{converter: c, logger: logger}
}

func (h *ConversionHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/reservations/:id/convert", h.Convert)
}

func (h *ConversionHandler) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	req.ReservationID = c.Param("id")

	order, err := h.converter.Convert(c.Request.Context(), req, security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Reservation was not converted, nothing was changed", err)
		return
	}

	c.JSON(http.StatusCreated, order)
}
