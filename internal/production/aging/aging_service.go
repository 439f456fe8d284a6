package aging

import (
	"context"
	"sort"
	"time"

	"semprejoias/internal/store"
	"semprejoias/pkg/models"

	"go.uber.org/zap"
)

type Entry struct {
	OrderID      string    `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	SKU          string    `json:"sku"`
	Status       string    `json:"status"`
	AgingStart   time.Time `json:"agingStart"`
	BusinessDays int       `json:"businessDays"`
	Label        string    `json:"label"`
	Bucket       Bucket    `json:"bucket"`
}

type Report struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Entries     []Entry        `json:"entries"`
	Buckets     map[Bucket]int `json:"buckets"`
}

type AgingService struct {
	store  store.Store
	loc    *time.Location
	logger *zap.Logger

	now func() time.Time
}

// NewAgingService counts calendar days in loc; nil means UTC.
func NewAgingService(s store.Store, loc *time.Location, logger *zap.Logger) *AgingService {
	if loc == nil {
		loc = time.UTC
	}
	return &AgingService{
		store:  s,
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

func (s *AgingService) Entry(order models.ProductionOrder, now time.Time) Entry {
	start := order.AgingStart()
	days := BusinessDaysBetween(start, now)
	return Entry{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		SKU:          order.SKU,
		Status:       order.Status.String(),
		AgingStart:   start,
		BusinessDays: days,
		Label:        Label(days),
		Bucket:       BucketFor(days),
	}
}

// Report ages every active order that is not ready, cancelled or shipped,
// oldest first.
func (s *AgingService) Report(ctx context.Context) (*Report, error) {
	var orders []models.ProductionOrder
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		orders, err = tx.Orders().List(ctx, store.Filter{Archived: false})
		return err
	})
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	report := &Report{
		GeneratedAt: now,
		Entries:     []Entry{},
		Buckets: map[Bucket]int{
			BucketNormal:   0,
			BucketWarning:  0,
			BucketUrgent:   0,
			BucketCritical: 0,
		},
	}
	for _, order := range orders {
		if order.Status.IsTerminal() {
			continue
		}
		entry := s.Entry(order, now)
		report.Entries = append(report.Entries, entry)
		report.Buckets[entry.Bucket]++
	}

	sort.SliceStable(report.Entries, func(i, j int) bool {
		if report.Entries[i].BusinessDays != report.Entries[j].BusinessDays {
			return report.Entries[i].BusinessDays > report.Entries[j].BusinessDays
		}
		return report.Entries[i].AgingStart.Before(report.Entries[j].AgingStart)
	})

	s.logger.Debug("Built aging report", zap.Int("orders", len(report.Entries)))
	return report, nil
}
