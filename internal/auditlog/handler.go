package auditlog

import (
	"context"
	"net/http"

	"semprejoias/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type LogReader interface {
	GetResourceLog(ctx context.Context, id string, resourceType string) ([]models.AuditLog, error)
}

type Handler struct {
	reader LogReader
	logger *zap.Logger
}

func NewHandler(reader LogReader, logger *zap.Logger) *Handler {
	return &Handler{reader: reader, logger: logger}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/audit-logs/:resource_type/:id", h.GetResourceLog)
}

func (h *Handler) GetResourceLog(c *gin.Context) {
	var uri struct {
		ResourceType string `uri:"resource_type" binding:"required,oneof=inventory_unit reservation production_order"`
		ID           string `uri:"id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid URI parameters", "details": err.Error()})
		return
	}

	logs, err := h.reader.GetResourceLog(c.Request.Context(), uri.ID, uri.ResourceType)
	if err != nil {
		h.logger.Error("Failed to fetch audit log", zap.String("id", uri.ID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audit log"})
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	c.JSON(http.StatusOK, logs)
}
