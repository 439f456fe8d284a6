package aging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"semprejoias/internal/store"
	"semprejoias/internal/store/memory"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 0, 0, 0, time.UTC)
}

func TestBusinessDaysBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		now   time.Time
		want  int
	}{
		{name: "monday to next monday", start: date(2024, 1, 1), now: date(2024, 1, 8), want: 5},
		{name: "same day", start: date(2024, 1, 3), now: date(2024, 1, 3).Add(5 * time.Hour), want: 0},
		{name: "friday to monday", start: date(2024, 1, 5), now: date(2024, 1, 8), want: 1},
		{name: "saturday to sunday", start: date(2024, 1, 6), now: date(2024, 1, 7), want: 0},
		{name: "start in the future", start: date(2024, 1, 10), now: date(2024, 1, 8), want: 0},
		{name: "two weeks and a day", start: date(2024, 1, 1), now: date(2024, 1, 16), want: 11},
		// 23:30 UTC on Thursday is already Friday in Lisbon summer time.
		{
			name:  "calendar date is taken in now's location",
			start: time.Date(2024, 7, 4, 23, 30, 0, 0, time.UTC),
			now:   time.Date(2024, 7, 8, 9, 0, 0, 0, mustLocation(t, "Europe/Lisbon")),
			want:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BusinessDaysBetween(tt.start, tt.now))
		})
	}
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	return loc
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		days   int
		bucket Bucket
		label  string
	}{
		{days: 0, bucket: BucketNormal, label: "0"},
		{days: 4, bucket: BucketNormal, label: "4"},
		{days: 5, bucket: BucketWarning, label: "5"},
		{days: 7, bucket: BucketWarning, label: "7"},
		{days: 8, bucket: BucketUrgent, label: "8"},
		{days: 9, bucket: BucketUrgent, label: "9"},
		{days: 10, bucket: BucketCritical, label: "10+"},
		{days: 42, bucket: BucketCritical, label: "10+"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.bucket, BucketFor(tt.days), "days=%d", tt.days)
		assert.Equal(t, tt.label, Label(tt.days), "days=%d", tt.days)
	}
}

func TestReport(t *testing.T) {
	s := memory.NewStore(zap.NewNop())
	t.Cleanup(func() { s.Close() })

	override := date(2024, 1, 1)
	archivedAt := date(2024, 1, 10)
	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		for _, o := range []models.ProductionOrder{
			{ID: "fresh", Status: metadata.OrderModelagem, CreatedAt: date(2024, 1, 15)},
			{ID: "overridden", Status: metadata.OrderGravacao, CreatedAt: date(2024, 1, 15), EffectiveCreatedAt: &override},
			{ID: "shipped", Status: metadata.OrderEnviado, CreatedAt: date(2023, 12, 1)},
			{ID: "cancelled", Status: metadata.OrderCancelado, CreatedAt: date(2023, 12, 1)},
			{ID: "ready", Status: metadata.OrderPronto, CreatedAt: date(2023, 12, 1)},
			{ID: "archived", Status: metadata.OrderGravacao, CreatedAt: date(2023, 12, 1), Archived: true, ArchivedAt: &archivedAt},
		} {
			if err := tx.Orders().Insert(ctx, o); err != nil {
				return err
			}
		}
		return nil
	}))

	svc := NewAgingService(s, time.UTC, zap.NewNop())
	svc.now = func() time.Time { return date(2024, 1, 16) }

	report, err := svc.Report(ctx)
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)

	assert.Equal(t, "overridden", report.Entries[0].OrderID)
	assert.Equal(t, 11, report.Entries[0].BusinessDays)
	assert.Equal(t, BucketCritical, report.Entries[0].Bucket)
	assert.Equal(t, "10+", report.Entries[0].Label)

	assert.Equal(t, "fresh", report.Entries[1].OrderID)
	assert.Equal(t, 1, report.Entries[1].BusinessDays)
	assert.Equal(t, BucketNormal, report.Entries[1].Bucket)

	assert.Equal(t, map[Bucket]int{BucketNormal: 1, BucketWarning: 0, BucketUrgent: 0, BucketCritical: 1}, report.Buckets)
}

type stubReporter struct {
	report *Report
	err    error
}

func (r stubReporter) Report(context.Context) (*Report, error) {
	return r.report, r.err
}

func TestAgingHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAgingHandler(stubReporter{report: &Report{Entries: []Entry{}}}, zap.NewNop()).RegisterRoutes(router)

	req, _ := http.NewRequest(http.MethodGet, "/aging", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entries":[]`)
}
