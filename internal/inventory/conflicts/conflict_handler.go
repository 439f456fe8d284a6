package conflicts

import (
	"context"
	"net/http"

	"semprejoias/internal/middleware"
	"semprejoias/pkg/models"
	"semprejoias/pkg/roles"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	ClassifyBulkSale(ctx context.Context, counts map[string]int) (*Classification, error)
	BulkSale(ctx context.Context, req BulkSaleRequest, actor models.Actor) (*BulkSaleResult, error)
}

type ConflictHandler struct {
	service Service
	logger  *zap.Logger
}

func NewConflictHandler(s Service, logger *zap.Logger) *ConflictHandler {
	return &ConflictHandler{service: s, logger: logger}
}

func (h *ConflictHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/inventory/bulk-sale/classify", h.Classify)
	router.POST("/inventory/bulk-sale", h.BulkSale)
}

func (h *ConflictHandler) Classify(c *gin.Context) {
	var req BulkSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	classification, err := h.service.ClassifyBulkSale(c.Request.Context(), req.Items)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to classify bulk sale", err)
		return
	}

	c.JSON(http.StatusOK, classification)
}

func (h *ConflictHandler) BulkSale(c *gin.Context) {
	var req BulkSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor := security.ActorFromContext(c)
	if r, _ := NewResolution(req.Resolution); r == ResolutionForce && !actor.Role.HasPermission(roles.Supervisor) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: forcing a sale over reservations requires a supervisor"})
		return
	}

	result, err := h.service.BulkSale(c.Request.Context(), req, actor)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Bulk sale not applied", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
