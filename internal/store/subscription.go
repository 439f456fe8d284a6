package store

import (
	"context"
	"sync"

	"semprejoias/pkg/models"
)

// Snapshot is the full result set of a subscription at one point in time.
type Snapshot struct {
	Collection   Collection               `json:"collection"`
	Units        []models.InventoryUnit   `json:"units,omitempty"`
	Reservations []models.Reservation     `json:"reservations,omitempty"`
	Orders       []models.ProductionOrder `json:"orders,omitempty"`
}

// Len counts the entities of the snapshot's collection.
func (s Snapshot) Len() int {
	return len(s.Units) + len(s.Reservations) + len(s.Orders)
}

type Subscription struct {
	C <-chan Snapshot

	once   sync.Once
	cancel func()
}

func NewSubscription(c <-chan Snapshot, cancel func()) *Subscription {
	return &Subscription{C: c, cancel: cancel}
}

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// QuerySnapshot runs the list query that backs a subscription.
func QuerySnapshot(ctx context.Context, tx Tx, c Collection, filter Filter) (Snapshot, error) {
	snapshot := Snapshot{Collection: c}
	var err error
	switch c {
	case CollectionUnits:
		snapshot.Units, err = tx.Units().List(ctx, filter)
	case CollectionReservations:
		snapshot.Reservations, err = tx.Reservations().List(ctx, filter)
	case CollectionOrders:
		snapshot.Orders, err = tx.Orders().List(ctx, filter)
	default:
		return snapshot, ErrUnknownCollection
	}
	return snapshot, err
}
