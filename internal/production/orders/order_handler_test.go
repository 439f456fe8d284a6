package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

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

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) ListActive(ctx context.Context, filter store.Filter) ([]models.ProductionOrder, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductionOrder), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, id string) (*models.ProductionOrder, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockOrderService) AdvanceStatus(ctx context.Context, id string, status string, actor models.Actor) (*models.ProductionOrder, error) {
	args := m.Called(id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockOrderService) UpdateSpecs(ctx context.Context, id string, specs models.Specs, actor models.Actor) (*models.ProductionOrder, error) {
	args := m.Called(id, specs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockOrderService) ToggleTransit(ctx context.Context, id string, transit string, actor models.Actor) (*models.ProductionOrder, bool, error) {
	args := m.Called(id, transit)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.ProductionOrder), args.Bool(1), args.Error(2)
}

func (m *MockOrderService) SetEffectiveCreatedAt(ctx context.Context, id string, at *time.Time, actor models.Actor) (*models.ProductionOrder, error) {
	args := m.Called(id, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, id string, actor models.Actor) (*DeleteResult, error) {
	args := m.Called(id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DeleteResult), args.Error(1)
}

func SetupTestRouter(svc Service, actor models.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		security.SetActor(c, actor)
		c.Next()
	})
	NewOrderHandler(svc, zap.NewNop()).RegisterRoutes(router)
	return router
}

func TestAdvanceStatusHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(m *MockOrderService)
		expectedStatus int
	}{
		{
			name: "success",
			body: StatusRequest{Status: "GRAVACAO"},
			setupMock: func(m *MockOrderService) {
				m.On("AdvanceStatus", "o1", "GRAVACAO").Return(&models.ProductionOrder{ID: "o1", Status: metadata.OrderGravacao}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing status",
			body:           map[string]string{},
			setupMock:      func(m *MockOrderService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid status",
			body: StatusRequest{Status: "NOPE"},
			setupMock: func(m *MockOrderService) {
				m.On("AdvanceStatus", "o1", "NOPE").Return(nil, custom_error.NewValidationError("status", "invalid order status: NOPE"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown order",
			body: StatusRequest{Status: "PRONTO"},
			setupMock: func(m *MockOrderService) {
				m.On("AdvanceStatus", "o1", "PRONTO").Return(nil, custom_error.NewNotFound("production order", "o1"))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			tt.setupMock(svc)
			router := SetupTestRouter(svc, models.Actor{ID: "op-1", Role: roles.Operator})

			body, _ := json.Marshal(tt.body)
			req, _ := http.NewRequest(http.MethodPatch, "/orders/o1/status", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestToggleTransitHandler(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ToggleTransit", "o1", "ascending").Return(&models.ProductionOrder{ID: "o1", TransitStatus: metadata.TransitAscending}, false, nil)
	router := SetupTestRouter(svc, models.Actor{ID: "op-1"})

	req, _ := http.NewRequest(http.MethodPatch, "/orders/o1/transit", bytes.NewBufferString(`{"transitStatus":"ascending"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Changed bool                   `json:"changed"`
		Order   models.ProductionOrder `json:"order"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Changed)
	assert.Equal(t, metadata.TransitAscending, response.Order.TransitStatus)
	svc.AssertExpectations(t)
}

func TestDeleteOrderHandler(t *testing.T) {
	supervisor := models.Actor{ID: "op-2", Role: roles.Supervisor}

	tests := []struct {
		name           string
		actor          models.Actor
		setupMock      func(m *MockOrderService)
		expectedStatus int
	}{
		{
			name:           "operator is forbidden",
			actor:          models.Actor{ID: "op-1", Role: roles.Operator},
			setupMock:      func(m *MockOrderService) {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:  "supervisor deletes",
			actor: supervisor,
			setupMock: func(m *MockOrderService) {
				m.On("DeleteOrder", "o1", supervisor).Return(&DeleteResult{OrderID: "o1", Compensation: CompensationRestocked}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "compensation conflict",
			actor: supervisor,
			setupMock: func(m *MockOrderService) {
				m.On("DeleteOrder", "o1", supervisor).Return(nil, custom_error.Abort(deleteOp, &custom_error.ConflictError{Message: "unit u1 is linked to another order"}))
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			tt.setupMock(svc)
			router := SetupTestRouter(svc, tt.actor)

			req, _ := http.NewRequest(http.MethodDelete, "/orders/o1", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}
