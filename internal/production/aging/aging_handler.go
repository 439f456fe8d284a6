package aging

import (
	"context"
	"net/http"

	"semprejoias/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Reporter interface {
	Report(ctx context.Context) (*Report, error)
}

type AgingHandler struct {
	reporter Reporter
	logger   *zap.Logger
}

func NewAgingHandler(r Reporter, logger *zap.Logger) *AgingHandler {
	return &AgingHandler{reporter: r, logger: logger}
}

func (h *AgingHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/aging", h.Report)
}

func (h *AgingHandler) Report(c *gin.Context) {
	report, err := h.reporter.Report(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, h.logger, "Failed to build aging report", err)
		return
	}

	c.JSON(http.StatusOK, report)
}
