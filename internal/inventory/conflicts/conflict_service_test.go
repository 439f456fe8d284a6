package conflicts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"semprejoias/internal/inventory/ledger"
	"semprejoias/internal/store"
	"semprejoias/internal/store/memory"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var operator = models.Actor{ID: "op-1", Name: "Ana"}

func newTestService(t *testing.T) (*ConflictService, *memory.Store) {
	t.Helper()
	s := memory.NewStore(zap.NewNop())
	t.Cleanup(func() { s.Close() })

	l := ledger.NewLedgerService(s, nil, nil, zap.NewNop())
	return NewConflictService(s, l, nil, zap.NewNop()), s
}

func seed(t *testing.T, s store.Store, sku string, inStock int, reserved ...int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		units := make([]models.InventoryUnit, 0, inStock)
		for i := 0; i < inStock; i++ {
			units = append(units, models.InventoryUnit{
				ID:        fmt.Sprintf("%s-u%d", sku, i),
				SKU:       sku,
				Status:    metadata.UnitInStock,
				CreatedAt: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
			})
		}
		if err := tx.Units().Insert(ctx, units); err != nil {
			return err
		}
		for i, qty := range reserved {
			r := models.Reservation{ID: fmt.Sprintf("%s-r%d", sku, i), SKU: sku, Quantity: qty}
			if err := tx.Reservations().Insert(ctx, r); err != nil {
				return err
			}
		}
		return nil
	}))
}

func soldCount(t *testing.T, s store.Store, sku string) int {
	t.Helper()
	var n int
	require.NoError(t, s.View(context.Background(), func(tx store.Tx) error {
		units, err := tx.Units().List(context.Background(), store.Filter{SKU: sku, Status: string(metadata.UnitSold)})
		n = len(units)
		return err
	}))
	return n
}

func TestClassifyFlagsReservedStock(t *testing.T) {
	svc, s := newTestService(t)
	seed(t, s, "RING-07", 3, 2)
	before, err := s.Dump()
	require.NoError(t, err)

	classification, err := svc.ClassifyBulkSale(context.Background(), map[string]int{"RING-07": 3})
	require.NoError(t, err)

	require.Len(t, classification.Lines, 1)
	line := classification.Lines[0]
	assert.Equal(t, 3, line.InStock)
	assert.Equal(t, 2, line.Reserved)
	assert.Equal(t, 1, line.Free)
	assert.True(t, line.Conflicting)
	assert.Equal(t, []string{"RING-07"}, classification.Conflicting)

	after, err := s.Dump()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, 0, soldCount(t, s, "RING-07"))
}

func TestBulkSaleWithoutResolutionRaisesConflict(t *testing.T) {
	svc, s := newTestService(t)
	seed(t, s, "RING-07", 3, 2)
	seed(t, s, "PEND-01", 4)
	before, err := s.Dump()
	require.NoError(t, err)

	_, err = svc.BulkSale(context.Background(), BulkSaleRequest{Items: map[string]int{"RING-07": 3, "PEND-01": 1}}, operator)

	var conflict *custom_error.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"RING-07"}, conflict.SKUs)
	classification, ok := conflict.Details.(*Classification)
	require.True(t, ok)
	assert.Len(t, classification.Lines, 2)

	after, err := s.Dump()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestBulkSaleResolutions(t *testing.T) {
	tests := []struct {
		name       string
		resolution string
		wantRing   int
		wantPend   int
		cancelled  bool
	}{
		{"force sells everything requested", "force", 3, 1, false},
		{"safe sells only free stock", "safe", 1, 1, false},
		{"cancel changes nothing", "cancel", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, s := newTestService(t)
			seed(t, s, "RING-07", 3, 2)
			seed(t, s, "PEND-01", 4)

			result, err := svc.BulkSale(context.Background(), BulkSaleRequest{
				Items:      map[string]int{"RING-07": 3, "PEND-01": 1},
				Resolution: tt.resolution,
			}, operator)
			require.NoError(t, err)

			assert.Equal(t, tt.cancelled, result.Cancelled)
			assert.True(t, result.Classification.HasConflicts())
			assert.Equal(t, tt.wantRing, soldCount(t, s, "RING-07"))
			assert.Equal(t, tt.wantPend, soldCount(t, s, "PEND-01"))
		})
	}
}

func TestBulkSaleWithoutConflictsSellsDirectly(t *testing.T) {
	svc, s := newTestService(t)
	seed(t, s, "A", 5, 1)

	result, err := svc.BulkSale(context.Background(), BulkSaleRequest{Items: map[string]int{"A": 4}}, operator)
	require.NoError(t, err)

	assert.False(t, result.Classification.HasConflicts())
	assert.Equal(t, 4, result.Sale.Sold("A"))
	assert.Equal(t, 4, soldCount(t, s, "A"))
}

func TestPlan(t *testing.T) {
	classification := &Classification{Lines: []Line{
		{SKU: "A", Requested: 3, Free: 1, Conflicting: true},
		{SKU: "B", Requested: 2, Free: 5},
		{SKU: "C", Requested: 2, Free: -1, Conflicting: true},
	}}

	assert.Equal(t, map[string]int{"A": 3, "B": 2, "C": 2}, Plan(classification, ResolutionForce))
	assert.Equal(t, map[string]int{"A": 1, "B": 2}, Plan(classification, ResolutionSafe))
	assert.Empty(t, Plan(classification, ResolutionCancel))
}

func TestNewResolution(t *testing.T) {
	for _, value := range []string{"", "force", " SAFE ", "cancel"} {
		_, err := NewResolution(value)
		assert.NoError(t, err, value)
	}

	_, err := NewResolution("maybe")
	var validation *custom_error.ValidationError
	assert.ErrorAs(t, err, &validation)
}
