package reservations

import (
	"context"
	"fmt"
	"testing"
	"time"

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

func newTestService(t *testing.T) (*ReservationService, *memory.Store) {
	t.Helper()
	s := memory.NewStore(zap.NewNop())
	t.Cleanup(func() { s.Close() })

	svc := NewReservationService(s, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC) }
	seq := 0
	svc.newID = func() string {
		seq++
		return fmt.Sprintf("r%d", seq)
	}
	return svc, s
}

func seedUnits(t *testing.T, s store.Store, sku string, n int) {
	t.Helper()
	units := make([]models.InventoryUnit, 0, n)
	for i := 0; i < n; i++ {
		units = append(units, models.InventoryUnit{
			ID:        fmt.Sprintf("%s-%d", sku, i),
			SKU:       sku,
			Status:    metadata.UnitInStock,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
		})
	}
	require.NoError(t, s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.Units().Insert(context.Background(), units)
	}))
}

func TestCreateReservation(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	seedUnits(t, s, "RING-07", 3)

	result, err := svc.CreateReservation(ctx, CreateReservationRequest{SKU: " RING-07 ", Quantity: 2, Customer: "Maria"}, operator)
	require.NoError(t, err)

	assert.Equal(t, "RING-07", result.Reservation.SKU)
	assert.Equal(t, metadata.ReservationPending, result.Reservation.Status)
	assert.Equal(t, "Ana", result.Reservation.CreatedBy)
	assert.Equal(t, 1, result.Availability.Available)
	assert.Empty(t, result.Warning)

	stored, err := svc.GetReservation(ctx, result.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Quantity)
}

func TestCreateReservationWarnsWhenOversold(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()
	seedUnits(t, s, "RING-07", 1)

	result, err := svc.CreateReservation(ctx, CreateReservationRequest{SKU: "RING-07", Quantity: 3}, operator)
	require.NoError(t, err)

	assert.Equal(t, -2, result.Availability.Available)
	assert.True(t, result.Availability.Oversold)
	assert.NotEmpty(t, result.Warning)
}

func TestCreateReservationValidation(t *testing.T) {
	svc, s := newTestService(t)
	before, err := s.Dump()
	require.NoError(t, err)

	tests := []struct {
		name string
		req  CreateReservationRequest
	}{
		{"empty sku", CreateReservationRequest{SKU: "", Quantity: 1}},
		{"zero quantity", CreateReservationRequest{SKU: "A", Quantity: 0}},
		{"negative quantity", CreateReservationRequest{SKU: "A", Quantity: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReservation(context.Background(), tt.req, operator)
			var validation *custom_error.ValidationError
			assert.ErrorAs(t, err, &validation)
		})
	}

	after, err := s.Dump()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestDeleteReservation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateReservation(ctx, CreateReservationRequest{SKU: "A", Quantity: 1}, operator)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteReservation(ctx, created.Reservation.ID, operator))

	err = svc.DeleteReservation(ctx, created.Reservation.ID, operator)
	var notFound *custom_error.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	list, err := svc.ListReservations(ctx, store.Filter{SKU: "A"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestListReservationsFiltersBySKU(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, sku := range []string{"A", "B", "A"} {
		_, err := svc.CreateReservation(ctx, CreateReservationRequest{SKU: sku, Quantity: 1}, operator)
		require.NoError(t, err)
	}

	list, err := svc.ListReservations(ctx, store.Filter{SKU: "A"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	all, err := svc.ListReservations(ctx, store.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
