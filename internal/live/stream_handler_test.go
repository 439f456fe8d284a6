package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"semprejoias/internal/store"
	"semprejoias/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// closedSubscriber delivers one snapshot and then ends the stream.
type closedSubscriber struct {
	filter store.Filter
}

func (s *closedSubscriber) Subscribe(_ context.Context, c store.Collection, filter store.Filter) (*store.Subscription, error) {
	if !c.IsValid() {
		return nil, store.ErrUnknownCollection
	}
	s.filter = filter
	ch := make(chan store.Snapshot, 1)
	ch <- store.Snapshot{Collection: c, Orders: []models.ProductionOrder{{ID: "o1"}}}
	close(ch)
	return store.NewSubscription(ch, nil), nil
}

// streamRecorder adds the CloseNotifier that gin's Stream expects.
type streamRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func newStreamRecorder() *streamRecorder {
	return &streamRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
}

func (r *streamRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestStreamHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sub := &closedSubscriber{}
	router := gin.New()
	NewStreamHandler(sub, zap.NewNop()).RegisterRoutes(router)

	w := newStreamRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/subscribe/production_orders?status=GRAVACAO", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event:snapshot")
	assert.Contains(t, w.Body.String(), `"id":"o1"`)
	assert.Equal(t, "GRAVACAO", sub.filter.Status)
	assert.False(t, sub.filter.Archived)
}

func TestStreamHandlerUnknownCollection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewStreamHandler(&closedSubscriber{}, zap.NewNop()).RegisterRoutes(router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/subscribe/users", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
