// Package memory is an in-process Store. Transactions work on a cloned copy of
// the state that replaces the live state only when the transaction succeeds.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"semprejoias/internal/live"
	"semprejoias/internal/store"
	"semprejoias/pkg/models"

	"go.uber.org/zap"
)

var _ store.Store = (*Store)(nil)

// state values are stored by value; pointer fields inside them are never
// mutated in place, so a shallow map copy is an isolated snapshot.
type state struct {
	units        map[string]models.InventoryUnit
	reservations map[string]models.Reservation
	orders       map[string]models.ProductionOrder
}

func newState() state {
	return state{
		units:        make(map[string]models.InventoryUnit),
		reservations: make(map[string]models.Reservation),
		orders:       make(map[string]models.ProductionOrder),
	}
}

func (s state) clone() state {
	c := state{
		units:        make(map[string]models.InventoryUnit, len(s.units)),
		reservations: make(map[string]models.Reservation, len(s.reservations)),
		orders:       make(map[string]models.ProductionOrder, len(s.orders)),
	}
	for k, v := range s.units {
		c.units[k] = v
	}
	for k, v := range s.reservations {
		c.reservations[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	return c
}

type Store struct {
	mu     sync.RWMutex
	state  state
	closed bool
	hub    *live.Hub
}

func NewStore(logger *zap.Logger) *Store {
	s := &Store{state: newState()}
	s.hub = live.NewHub(s.query, logger)
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	touched, err := s.commit(ctx, fn)
	if err != nil {
		return err
	}
	if len(touched) > 0 {
		s.hub.Changed(touched...)
	}
	return nil
}

// commit runs fn on a clone and swaps it in. The lock is released even when fn panics.
func (s *Store) commit(ctx context.Context, fn func(tx store.Tx) error) ([]store.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}

	t := &tx{state: s.state.clone(), touched: make(map[store.Collection]struct{})}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.state = t.state

	collections := make([]store.Collection, 0, len(t.touched))
	for c := range t.touched {
		collections = append(collections, c)
	}
	return collections, nil
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return fn(&tx{state: s.state, readOnly: true})
}

func (s *Store) Subscribe(ctx context.Context, c store.Collection, filter store.Filter) (*store.Subscription, error) {
	return s.hub.Subscribe(ctx, c, filter)
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return store.ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.hub.Close()
	return nil
}

// Dump serialises the whole state in a stable order.
func (s *Store) Dump() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type dump struct {
		Units        []models.InventoryUnit   `json:"units"`
		Reservations []models.Reservation     `json:"reservations"`
		Orders       []models.ProductionOrder `json:"orders"`
	}
	var d dump
	for _, u := range s.state.units {
		d.Units = append(d.Units, u)
	}
	for _, r := range s.state.reservations {
		d.Reservations = append(d.Reservations, r)
	}
	for _, o := range s.state.orders {
		d.Orders = append(d.Orders, o)
	}
	sort.Slice(d.Units, func(i, j int) bool { return d.Units[i].ID < d.Units[j].ID })
	sort.Slice(d.Reservations, func(i, j int) bool { return d.Reservations[i].ID < d.Reservations[j].ID })
	sort.Slice(d.Orders, func(i, j int) bool { return d.Orders[i].ID < d.Orders[j].ID })

	return json.Marshal(d)
}

func (s *Store) query(ctx context.Context, c store.Collection, filter store.Filter) (store.Snapshot, error) {
	var snapshot store.Snapshot
	err := s.View(ctx, func(t store.Tx) error {
		var err error
		snapshot, err = store.QuerySnapshot(ctx, t, c, filter)
		return err
	})
	return snapshot, err
}

type tx struct {
	state    state
	readOnly bool
	touched  map[store.Collection]struct{}
}

func (t *tx) Units() store.UnitRepository               { return unitRepository{t} }
func (t *tx) Reservations() store.ReservationRepository { return reservationRepository{t} }
func (t *tx) Orders() store.OrderRepository             { return orderRepository{t} }

func (t *tx) Touch(c store.Collection) {
	if t.readOnly {
		return
	}
	t.touched[c] = struct{}{}
}

func (t *tx) writable() error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	return nil
}
