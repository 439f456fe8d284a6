package archive

import (
	"context"
	"net/http"

	"semprejoias/internal/middleware"
	"semprejoias/pkg/models"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Archive(ctx context.Context, id string, actor models.Actor) (*models.ProductionOrder, error)
	Unarchive(ctx context.Context, id string, actor models.Actor) (*models.ProductionOrder, error)
	Search(ctx context.Context, term string) ([]models.ProductionOrder, error)
	Page(ctx context.Context, token string, direction Direction) (*Page, error)
}

type ArchiveHandler struct {
	service Service
	logger  *zap.Logger
}

type pageQuery struct {
	Token     string `form:"token"`
	Direction string `form:"direction"`
}

func NewArchiveHandler(s Service, logger *zap.Logger) *ArchiveHandler {
	return &ArchiveHandler{service: s, logger: logger}
}

func (h *ArchiveHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/orders/:id/archive", h.Archive)
	router.POST("/orders/:id/unarchive", h.Unarchive)
	router.GET("/archive", h.Page)
	router.GET("/archive/search", h.Search)
}

func (h *ArchiveHandler) Archive(c *gin.Context) {
	order, err := h.service.Archive(c.Request.Context(), c.Param("id"), security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to archive production order", err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *ArchiveHandler) Unarchive(c *gin.Context) {
	order, err := h.service.Unarchive(c.Request.Context(), c.Param("id"), security.ActorFromContext(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to unarchive production order", err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (h *ArchiveHandler) Search(c *gin.Context) {
	orders, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to search the archive", err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *ArchiveHandler) Page(c *gin.Context) {
	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	direction, err := NewDirection(query.Direction)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Invalid page direction", err)
		return
	}

	page, err := h.service.Page(c.Request.Context(), query.Token, direction)
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to fetch archive page", err)
		return
	}

	c.JSON(http.StatusOK, page)
}
