package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything that can report whether its backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Store       string    `json:"store"`
	LastChecked time.Time `json:"last_checked"`
	Uptime      string    `json:"uptime"`
	Version     string    `json:"version"`
}

const (
	healthCacheDuration = 5 * time.Second
	healthPingTimeout   = 2 * time.Second
)

var (
	healthMutex sync.Mutex
	startTime   = time.Now()
	version     = "1.0.0"
	lastStatus  *HealthStatus
)

// HealthCheckMiddleware reports the store reachability, cached for a few seconds.
func HealthCheckMiddleware(pinger Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		healthMutex.Lock()
		defer healthMutex.Unlock()

		if lastStatus == nil || time.Since(lastStatus.LastChecked) >= healthCacheDuration {
			lastStatus = checkHealth(c.Request.Context(), pinger)
		}

		code := http.StatusOK
		if lastStatus.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, lastStatus)
	}
}

func checkHealth(ctx context.Context, pinger Pinger) *HealthStatus {
	status := &HealthStatus{
		Status:      "ok",
		Store:       "ok",
		LastChecked: time.Now(),
		Uptime:      time.Since(startTime).Round(time.Second).String(),
		Version:     version,
	}
	if pinger == nil {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	if err := pinger.Ping(ctx); err != nil {
		status.Status = "degraded"
		status.Store = err.Error()
	}
	return status
}

// SetVersion sets the reported version and drops the cached status.
func SetVersion(v string) {
	healthMutex.Lock()
	defer healthMutex.Unlock()

	version = v
	lastStatus = nil
}

func resetHealthCache() {
	healthMutex.Lock()
	defer healthMutex.Unlock()
	lastStatus = nil
}
