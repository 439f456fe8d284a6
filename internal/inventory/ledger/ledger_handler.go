package ledger

import (
	"context"
	"net/http"

	"semprejoias/internal/middleware"
	"semprejoias/internal/store"
	"semprejoias/pkg/models"
	"semprejoias/pkg/roles"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	AdjustQuantity(ctx context.Context, req AdjustRequest, actor models.Actor) (*AdjustResult, error)
	SellItems(ctx context.Context, counts map[string]int, actor models.Actor) (*SaleResult, error)
	HasPendingReservations(ctx context.Context, sku string) (bool, error)
	Availability(ctx context.Context, skus []string) ([]Availability, error)
	ListUnits(ctx context.Context, filter store.Filter) ([]models.InventoryUnit, error)
}

type LedgerHandler struct {
	service Service
	logger  *zap.Logger
}

func NewLedgerHandler(s Service, logger *zap.Logger) *LedgerHandler {
	return &LedgerHandler{service: s, logger: logger}
}

func (h *LedgerHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/inventory/adjust", h.AdjustQuantity)
	router.POST("/inventory/sell", h.SellItems)
	router.GET("/inventory/units", h.ListUnits)
	router.GET("/inventory/availability", h.Availability)
	router.GET("/inventory/:sku/pending-reservations", h.HasPendingReservations)
}

func (h *LedgerHandler) AdjustQuantity(c *gin.Context) {
	var req AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	actor := security.ActorFromContext(c)
	if req.Force && !actor.Role.HasPermission(roles.Supervisor) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden: forced removal requires a supervisor"})
		return
	}

	result, err := h.service.AdjustQuantity(c.Request.Context(), req, actor)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Unable to adjust stock", err)
		return
	}

	status := http.StatusOK
	if req.Delta > 0 {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

func (h *LedgerHandler) SellItems(c *gin.Context) {
	var req SellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.service.SellItems(c.Request.Context(), req.Items, security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Unable to sell items", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *LedgerHandler) ListUnits(c *gin.Context) {
	var filter store.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	units, err := h.service.ListUnits(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to fetch inventory units", err)
		return
	}

	c.JSON(http.StatusOK, units)
}

func (h *LedgerHandler) Availability(c *gin.Context) {
	skus := c.QueryArray("sku")

	availability, err := h.service.Availability(c.Request.Context(), skus)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to compute availability", err)
		return
	}

	c.JSON(http.StatusOK, availability)
}

func (h *LedgerHandler) HasPendingReservations(c *gin.Context) {
	sku := c.Param("sku")

	pending, err := h.service.HasPendingReservations(c.Request.Context(), sku)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to check reservations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sku": sku, "pending": pending})
}
