package live

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"semprejoias/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepAliveInterval = 30 * time.Second

type Subscriber interface {
	Subscribe(ctx context.Context, c store.Collection, filter store.Filter) (*store.Subscription, error)
}

// StreamHandler serves subscriptions as Server-Sent Events, one "snapshot"
// event per committed change.
type StreamHandler struct {
	subscriber Subscriber
	logger     *zap.Logger
}

func NewStreamHandler(s Subscriber, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{subscriber: s, logger: logger}
}

func (h *StreamHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/subscribe/:collection", h.Stream)
}

func (h *StreamHandler) Stream(c *gin.Context) {
	var filter store.Filter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	collection := store.Collection(c.Param("collection"))

	sub, err := h.subscriber.Subscribe(c.Request.Context(), collection, filter)
	if err != nil {
		if errors.Is(err, store.ErrUnknownCollection) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Unknown collection", "details": string(collection)})
			return
		}
		h.logger.Error("Failed to open subscription", zap.String("collection", string(collection)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open subscription"})
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case snapshot, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snapshot)
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", time.Now().UTC())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
