package orders

import (
	"context"
	"net/http"
	"time"

	"semprejoias/internal/middleware"
	"semprejoias/internal/store"
	"semprejoias/pkg/models"
	"semprejoias/pkg/roles"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	ListActive(ctx context.Context, filter store.Filter) ([]models.ProductionOrder, error)
	GetOrder(ctx context.Context, id string) (*models.ProductionOrder, error)
	AdvanceStatus(ctx context.Context, id string, status string, actor models.Actor) (*models.ProductionOrder, error)
	UpdateSpecs(ctx context.Context, id string, specs models.Specs, actor models.Actor) (*models.ProductionOrder, error)
	ToggleTransit(ctx context.Context, id string, transit string, actor models.Actor) (*models.ProductionOrder, bool, error)
	SetEffectiveCreatedAt(ctx context.Context, id string, at *time.Time, actor models.Actor) (*models.ProductionOrder, error)
	DeleteOrder(ctx context.Context, id string, actor models.Actor) (*DeleteResult, error)
}

type OrderHandler struct {
	service Service
	logger  *zap.Logger
}

func NewOrderHandler(s Service, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{service: s, logger: logger}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/orders", h.ListActive)
	router.GET("/orders/:id", h.GetOrder)
	router.PATCH("/orders/:id/status", h.AdvanceStatus)
	router.PUT("/orders/:id/specs", h.UpdateSpecs)
	router.PATCH("/orders/:id/transit", h.ToggleTransit)
	router.PATCH("/orders/:id/effective-created-at", h.SetEffectiveCreatedAt)
	router.DELETE("/orders/:id", security.Authorize(roles.Supervisor), h.DeleteOrder)
}

func (h *OrderHandler) ListActive(c *gin.Context) {
	var filter store.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	orders, err := h.service.ListActive(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to fetch production orders", err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to fetch production order", err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AdvanceStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	order, err := h.service.AdvanceStatus(c.Request.Context(), c.Param("id"), req.Status, security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to change order status", err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateSpecs(c *gin.Context) {
	var specs models.Specs
	if err := c.ShouldBindJSON(&specs); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	order, err := h.service.UpdateSpecs(c.Request.Context(), c.Param("id"), specs, security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to update order specs", err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ToggleTransit(c *gin.Context) {
	var req TransitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	order, changed, err := h.service.ToggleTransit(c.Request.Context(), c.Param("id"), req.TransitStatus, security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to change transit status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order, "changed": changed})
}

func (h *OrderHandler) SetEffectiveCreatedAt(c *gin.Context) {
	var req EffectiveCreatedAtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	order, err := h.service.SetEffectiveCreatedAt(c.Request.Context(), c.Param("id"), req.EffectiveCreatedAt, security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to set effective creation date", err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	result, err := h.service.DeleteOrder(c.Request.Context(), c.Param("id"), security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Production order was not deleted, nothing was changed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
