package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"semprejoias/internal/core/config"
	"semprejoias/internal/core/container"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server: config.ServerConfig{AppEnv: "test", RequestTimeout: 5 * time.Second, RateWindow: time.Minute, Timezone: "UTC"},
		Store:  config.StoreConfig{Driver: config.StoreDriverMemory},
		Audit:  config.AuditConfig{Sink: config.AuditSinkLog},
	}
	c, err := container.NewAppContainer(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return NewRouter(c)
}

func call(t *testing.T, router *gin.Engine, method, path string, body interface{}, role string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(security.HeaderActorID, "op-1")
	req.Header.Set(security.HeaderActorName, "Ana")
	req.Header.Set(security.HeaderActorRole, role)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func TestReservationToOrderLifecycle(t *testing.T) {
	router := newTestRouter(t)

	w, _ := call(t, router, http.MethodPost, "/inventory/adjust", map[string]interface{}{"sku": "RING-07", "delta": 3}, "operator")
	require.Equal(t, http.StatusCreated, w.Code)

	w, created := call(t, router, http.MethodPost, "/reservations", map[string]interface{}{"sku": "RING-07", "quantity": 2, "customer": "Maria"}, "operator")
	require.Equal(t, http.StatusCreated, w.Code)
	reservationID := created["reservation"].(map[string]interface{})["id"].(string)

	w, classification := call(t, router, http.MethodPost, "/inventory/bulk-sale/classify", map[string]interface{}{"items": map[string]int{"RING-07": 3}}, "operator")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"RING-07"}, classification["conflicting"])

	w, _ = call(t, router, http.MethodPost, "/inventory/bulk-sale", map[string]interface{}{"items": map[string]int{"RING-07": 3}, "resolution": "force"}, "operator")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, order := call(t, router, http.MethodPost, "/reservations/"+reservationID+"/convert", map[string]interface{}{"orderNumber": "SJ-1"}, "operator")
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := order["id"].(string)
	assert.Equal(t, "SOLICITACAO", order["status"])

	w, _ = call(t, router, http.MethodGet, "/reservations/"+reservationID, nil, "operator")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = call(t, router, http.MethodPut, "/orders/"+orderID+"/specs", map[string]interface{}{"size": "14"}, "operator")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = call(t, router, http.MethodPost, "/orders/"+orderID+"/archive", nil, "operator")
	require.Equal(t, http.StatusOK, w.Code)

	w, page := call(t, router, http.MethodGet, "/archive", nil, "operator")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, page["orders"], 1)

	w, restored := call(t, router, http.MethodPost, "/orders/"+orderID+"/unarchive", nil, "operator")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SOLICITACAO", restored["status"])

	w, _ = call(t, router, http.MethodDelete, "/orders/"+orderID, nil, "operator")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, deleted := call(t, router, http.MethodDelete, "/orders/"+orderID, nil, "supervisor")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", deleted["compensation"])
}

func TestProtectedRoutesNeedAnActor(t *testing.T) {
	router := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
