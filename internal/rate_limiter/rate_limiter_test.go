package rate_limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"semprejoias/pkg/models"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestIsAllowedSlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.IsAllowed("a"))
	assert.True(t, rl.IsAllowed("a"))
	assert.False(t, rl.IsAllowed("a"))
	assert.True(t, rl.IsAllowed("b"))
	assert.Equal(t, 0, rl.GetRemainingRequests("a"))

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, rl.GetRemainingRequests("a"))
	assert.True(t, rl.IsAllowed("a"))
}

func TestMiddlewareKeysByActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Stop()

	actorID := "op-1"
	router := gin.New()
	router.Use(func(c *gin.Context) {
		security.SetActor(c, models.Actor{ID: actorID})
		c.Next()
	})
	router.Use(rl.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func() int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, serve())
	assert.Equal(t, http.StatusTooManyRequests, serve())

	actorID = "op-2"
	assert.Equal(t, http.StatusOK, serve())
}
