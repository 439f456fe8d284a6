package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"semprejoias/internal/store"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"
	"semprejoias/pkg/roles"
	"semprejoias/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) AdjustQuantity(ctx context.Context, req AdjustRequest, actor models.Actor) (*AdjustResult, error) {
	args := m.Called(req, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AdjustResult), args.Error(1)
}

func (m *MockLedgerService) SellItems(ctx context.Context, counts map[string]int, actor models.Actor) (*SaleResult, error) {
	args := m.Called(counts, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SaleResult), args.Error(1)
}

func (m *MockLedgerService) HasPendingReservations(ctx context.Context, sku string) (bool, error) {
	args := m.Called(sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerService) Availability(ctx context.Context, skus []string) ([]Availability, error) {
	args := m.Called(skus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Availability), args.Error(1)
}

func (m *MockLedgerService) ListUnits(ctx context.Context, filter store.Filter) ([]models.InventoryUnit, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InventoryUnit), args.Error(1)
}

func SetupTestRouter(svc Service, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		security.SetActor(c, actor)
		c.Next()
	})
	NewLedgerHandler(svc, zap.NewNop()).RegisterRoutes(router)
	return router
}

func TestAdjustQuantityHandler(t *testing.T) {
	operatorActor := models.Actor{ID: "op-1", Role: roles.Operator}
	supervisorActor := models.Actor{ID: "op-2", Role: roles.Supervisor}

	tests := []struct {
		name       string
		actor      models.Actor
		body       interface{}
		setup      func(m *MockLedgerService)
		wantStatus int
	}{
		{
			name:  "stock added",
			actor: operatorActor,
			body:  AdjustRequest{SKU: "A", Delta: 2},
			setup: func(m *MockLedgerService) {
				m.On("AdjustQuantity", AdjustRequest{SKU: "A", Delta: 2}, operatorActor).
					Return(&AdjustResult{SKU: "A", Delta: 2}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:  "stock removed",
			actor: operatorActor,
			body:  AdjustRequest{SKU: "A", Delta: -1},
			setup: func(m *MockLedgerService) {
				m.On("AdjustQuantity", AdjustRequest{SKU: "A", Delta: -1}, operatorActor).
					Return(&AdjustResult{SKU: "A", Delta: -1}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:  "insufficient stock",
			actor: operatorActor,
			body:  AdjustRequest{SKU: "A", Delta: -5},
			setup: func(m *MockLedgerService) {
				m.On("AdjustQuantity", mock.Anything, operatorActor).
					Return(nil, &custom_error.InsufficientStockError{SKU: "A", Requested: 5, Available: 1})
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "force needs a supervisor",
			actor:      operatorActor,
			body:       AdjustRequest{SKU: "A", Delta: -1, Force: true},
			setup:      func(m *MockLedgerService) {},
			wantStatus: http.StatusForbidden,
		},
		{
			name:  "supervisor may force",
			actor: supervisorActor,
			body:  AdjustRequest{SKU: "A", Delta: -1, Force: true},
			setup: func(m *MockLedgerService) {
				m.On("AdjustQuantity", AdjustRequest{SKU: "A", Delta: -1, Force: true}, supervisorActor).
					Return(&AdjustResult{SKU: "A", Delta: -1}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid payload",
			actor:      operatorActor,
			body:       map[string]interface{}{"sku": "A"},
			setup:      func(m *MockLedgerService) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLedgerService)
			tt.setup(svc)

			payload, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/inventory/adjust", bytes.NewBuffer(payload))
			req.Header.Set("Content-Type", "application/json")

			SetupTestRouter(svc, tt.actor).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestSellItemsHandler(t *testing.T) {
	actor := models.Actor{ID: "op-1", Role: roles.Operator}
	svc := new(MockLedgerService)
	svc.On("SellItems", map[string]int{"A": 2, "B": 2}, actor).Return(&SaleResult{
		Lines: []SaleLine{
			{SKU: "A", Requested: 2, Sold: 1, UnitIDs: []string{"u1"}},
			{SKU: "B", Requested: 2, Sold: 2, UnitIDs: []string{"u2", "u3"}},
		},
		Partial: true,
	}, nil)

	payload, _ := json.Marshal(SellRequest{Items: map[string]int{"A": 2, "B": 2}})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/inventory/sell", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	SetupTestRouter(svc, actor).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var result SaleResult
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Partial)
	assert.Equal(t, 1, result.Sold("A"))
	svc.AssertExpectations(t)
}

func TestSellItemsHandlerRejectsReservedSKU(t *testing.T) {
	svc, s := newTestService(t)
	_, err := svc.AdjustQuantity(context.Background(), AdjustRequest{SKU: "RING-07", Delta: 3}, operator)
	assert.NoError(t, err)
	reserve(t, s, "r1", "RING-07", 2)

	payload, _ := json.Marshal(SellRequest{Items: map[string]int{"RING-07": 3}})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/inventory/sell", bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")

	SetupTestRouter(svc, models.Actor{ID: "op-1", Role: roles.Operator}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "RING-07")
	assert.Equal(t, 3, countByStatus(t, s, "RING-07", metadata.UnitInStock))
}

func TestAvailabilityHandler(t *testing.T) {
	svc := new(MockLedgerService)
	svc.On("Availability", []string{"A", "B"}).Return([]Availability{
		NewAvailability("A", 1, 2),
		NewAvailability("B", 3, 0),
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/inventory/availability?sku=A&sku=B", nil)
	SetupTestRouter(svc, models.Actor{ID: "op-1"}).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var availability []Availability
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &availability))
	assert.True(t, availability[0].Oversold)
	assert.Equal(t, 3, availability[1].Available)
}
