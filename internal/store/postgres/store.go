// Package postgres implements the store contract on PostgreSQL with goqu.
// Changes are announced with pg_notify inside the writing transaction, so
// listeners only ever hear about committed data.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"semprejoias/internal/database"
	"semprejoias/internal/live"
	"semprejoias/internal/repository"
	"semprejoias/internal/store"
	custom_error "semprejoias/pkg/errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

var _ store.Store = (*Store)(nil)

const (
	minReconnectInterval = 2 * time.Second
	maxReconnectInterval = time.Minute
	listenerPingInterval = 90 * time.Second
)

type Config struct {
	DatabaseURL   string
	NotifyChannel string
	Pool          database.PoolConfig
}

type Store struct {
	repo     *repository.Repository
	channel  string
	hub      *live.Hub
	listener *pq.Listener
	logger   *zap.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open connects, starts listening on the notify channel and returns a ready store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL, cfg.Pool)
	if err != nil {
		return nil, err
	}

	s := &Store{
		repo:    repository.NewRepository(db),
		channel: cfg.NotifyChannel,
		logger:  logger,
		done:    make(chan struct{}),
	}
	s.hub = live.NewHub(s.query, logger)

	s.listener = pq.NewListener(cfg.DatabaseURL, minReconnectInterval, maxReconnectInterval, s.onListenerEvent)
	if err := s.listener.Listen(cfg.NotifyChannel); err != nil {
		s.hub.Close()
		s.listener.Close()
		db.Close()
		return nil, fmt.Errorf("could not listen on %s: %w", cfg.NotifyChannel, err)
	}

	s.wg.Add(1)
	go s.listen()

	return s, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return repository.WithTransaction(ctx, s.repo.GoquDBWrapper, nil, func(gtx *goqu.TxDatabase) error {
		t := &tx{db: gtx, touched: make(map[store.Collection]struct{})}
		if err := fn(t); err != nil {
			return err
		}
		for c := range t.touched {
			if _, err := gtx.ExecContext(ctx, "SELECT pg_notify($1, $2)", s.channel, string(c)); err != nil {
				return fmt.Errorf("failed to notify %s: %w", c, err)
			}
		}
		return nil
	})
}

func (s *Store) View(ctx context.Context, fn func(tx store.Tx) error) error {
	opts := &sql.TxOptions{ReadOnly: true}
	return repository.WithTransaction(ctx, s.repo.GoquDBWrapper, opts, func(gtx *goqu.TxDatabase) error {
		return fn(&tx{db: gtx, readOnly: true})
	})
}

func (s *Store) Subscribe(ctx context.Context, c store.Collection, filter store.Filter) (*store.Subscription, error) {
	return s.hub.Subscribe(ctx, c, filter)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.repo.DB.PingContext(ctx)
}

// Repository exposes the goqu wrapper for collaborators sharing the connection pool.
func (s *Store) Repository() *repository.Repository {
	return s.repo
}

func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if lerr := s.listener.Close(); lerr != nil {
			s.logger.Warn("Failed to close notify listener", zap.Error(lerr))
		}
		s.wg.Wait()
		s.hub.Close()
		err = s.repo.DB.Close()
	})
	return err
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

func (s *Store) listen() {
	defer s.wg.Done()
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case n, ok := <-s.listener.Notify:
			if !ok {
				return
			}
			if n == nil {
				// reconnected: notifications may have been lost, refresh everything
				s.hub.Changed(store.Collections()...)
				continue
			}
			c := store.Collection(n.Extra)
			if !c.IsValid() {
				s.logger.Warn("Ignoring notification for unknown collection", zap.String("payload", n.Extra))
				continue
			}
			s.hub.Changed(c)
		case <-ticker.C:
			go func() {
				if err := s.listener.Ping(); err != nil {
					s.logger.Warn("Notify listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func (s *Store) onListenerEvent(event pq.ListenerEventType, err error) {
	switch event {
	case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
		s.logger.Warn("Notify listener connection problem", zap.Error(err))
	case pq.ListenerEventReconnected:
		s.logger.Info("Notify listener reconnected")
	}
}

type tx struct {
	db       *goqu.TxDatabase
	readOnly bool
	touched  map[store.Collection]struct{}
}

func (t *tx) Units() store.UnitRepository               { return &unitRepository{t} }
func (t *tx) Reservations() store.ReservationRepository { return &reservationRepository{t} }
func (t *tx) Orders() store.OrderRepository             { return &orderRepository{t} }

func (t *tx) Touch(c store.Collection) {
	if !t.readOnly {
		t.touched[c] = struct{}{}
	}
}

func (t *tx) writable() error {
	if t.readOnly {
		return store.ErrReadOnly
	}
	return nil
}

// lock adds FOR UPDATE when the transaction can write.
func (t *tx) lock(ds *goqu.SelectDataset) *goqu.SelectDataset {
	if t.readOnly {
		return ds
	}
	return ds.ForUpdate(exp.Wait)
}

func wrapWriteError(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return custom_error.WrapDBError(message, string(pqErr.Code))
	}
	return fmt.Errorf("%s: %w", message, err)
}

func expectAffected(result sql.Result, resource, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return custom_error.NewNotFound(resource, id)
	}
	return nil
}
