// Package live fans committed changes out to long-lived subscriptions.
package live

import (
	"context"
	"sync"
	"time"

	"semprejoias/internal/store"

	"go.uber.org/zap"
)

// Querier loads the current result set for a subscription.
type Querier func(ctx context.Context, c store.Collection, filter store.Filter) (store.Snapshot, error)

const queryTimeout = 10 * time.Second

type subscriber struct {
	id         int
	collection store.Collection
	filter     store.Filter

	mu     sync.Mutex
	closed bool
	ch     chan store.Snapshot
}

// push replaces any snapshot the consumer has not picked up yet.
func (s *subscriber) push(snapshot store.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- snapshot:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snapshot:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

type Hub struct {
	query  Querier
	logger *zap.Logger

	mu      sync.Mutex
	nextID  int
	subs    map[store.Collection]map[int]*subscriber
	pending map[store.Collection]struct{}
	// changes counts Changed calls per collection.
	changes map[store.Collection]uint64
	closed  bool

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func NewHub(query Querier, logger *zap.Logger) *Hub {
	h := &Hub{
		query:   query,
		logger:  logger,
		subs:    make(map[store.Collection]map[int]*subscriber),
		pending: make(map[store.Collection]struct{}),
		changes: make(map[store.Collection]uint64),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Subscribe registers a listener and delivers the initial snapshot before returning.
// The listener is registered before the initial query, so a change committed
// while the query runs still reaches it. The subscription ends on Close or when
// ctx is cancelled.
func (h *Hub) Subscribe(ctx context.Context, c store.Collection, filter store.Filter) (*store.Subscription, error) {
	if !c.IsValid() {
		return nil, store.ErrUnknownCollection
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, store.ErrClosed
	}
	h.nextID++
	sub := &subscriber{
		id:         h.nextID,
		collection: c,
		filter:     filter,
		ch:         make(chan store.Snapshot, 1),
	}
	if h.subs[c] == nil {
		h.subs[c] = make(map[int]*subscriber)
	}
	h.subs[c][sub.id] = sub
	seen := h.changes[c]
	h.mu.Unlock()

	initial, err := h.query(ctx, c, filter)
	if err != nil {
		h.remove(sub)
		return nil, err
	}
	sub.push(initial)

	// A refresh racing the initial push may have been overwritten by it.
	h.mu.Lock()
	raced := h.changes[c] != seen
	h.mu.Unlock()
	if raced {
		h.Changed(c)
	}

	stop := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(stop)
			h.remove(sub)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()

	return store.NewSubscription(sub.ch, cancel), nil
}

// Changed marks collections dirty. It never blocks the committing caller.
func (h *Hub) Changed(collections ...store.Collection) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	for _, c := range collections {
		h.pending[c] = struct{}{}
		h.changes[c]++
	}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Active counts open subscriptions.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, subs := range h.subs {
		n += len(subs)
	}
	return n
}

func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	all := make([]*subscriber, 0)
	for _, subs := range h.subs {
		for _, sub := range subs {
			all = append(all, sub)
		}
	}
	h.subs = make(map[store.Collection]map[int]*subscriber)
	h.mu.Unlock()

	close(h.done)
	h.wg.Wait()
	for _, sub := range all {
		sub.close()
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	if subs, ok := h.subs[sub.collection]; ok {
		delete(subs, sub.id)
	}
	h.mu.Unlock()
	sub.close()
}

func (h *Hub) loop() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case <-h.wake:
		}

		h.mu.Lock()
		pending := h.pending
		h.pending = make(map[store.Collection]struct{})
		var targets []*subscriber
		for c := range pending {
			for _, sub := range h.subs[c] {
				targets = append(targets, sub)
			}
		}
		h.mu.Unlock()

		for _, sub := range targets {
			h.refresh(sub)
		}
	}
}

func (h *Hub) refresh(sub *subscriber) {
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	snapshot, err := h.query(ctx, sub.collection, sub.filter)
	if err != nil {
		h.logger.Error("Failed to refresh subscription",
			zap.String("collection", string(sub.collection)),
			zap.Int("subscription", sub.id),
			zap.Error(err),
		)
		return
	}
	sub.push(snapshot)
}
