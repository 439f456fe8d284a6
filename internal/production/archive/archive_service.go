// Package archive soft-deletes production orders and serves the archive:
// multi-field search and cursor pagination in archivedAt desc order.
package archive

import (
	"context"
	"sort"
	"strings"
	"time"

	"semprejoias/internal/store"
	"semprejoias/pkg/auditlog"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"go.uber.org/zap"
)

const defaultPageSize = 20

// searchPredicates are run one query each and unioned by id.
var searchPredicates = []struct {
	field  store.SearchField
	prefix bool
}{
	{field: store.SearchOrderNumber},
	{field: store.SearchCustomerName, prefix: true},
	{field: store.SearchSKU},
	{field: store.SearchCity, prefix: true},
	{field: store.SearchStreet, prefix: true},
	{field: store.SearchZIP},
	{field: store.SearchEngraving, prefix: true},
}

type Page struct {
	Orders  []models.ProductionOrder `json:"orders"`
	Token   string                   `json:"token"`
	HasNext bool                     `json:"hasNext"`
	HasPrev bool                     `json:"hasPrev"`
}

type ArchiveService struct {
	store    store.Store
	pageSize int
	auditLog *auditlog.Auditlog
	logger   *zap.Logger

	now func() time.Time
}

func NewArchiveService(s store.Store, pageSize int, a *auditlog.Auditlog, logger *zap.Logger) *ArchiveService {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &ArchiveService{
		store:    s,
		pageSize: pageSize,
		auditLog: a,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Archive is idempotent: an archived order keeps its original archivedAt.
func (s *ArchiveService) Archive(ctx context.Context, id string, actor models.Actor) (*models.ProductionOrder, error) {
	var changed bool
	order, err := s.update(ctx, id, func(order *models.ProductionOrder, at time.Time) (bool, error) {
		if order.Archived {
			return false, nil
		}
		order.Archived = true
		order.ArchivedAt = &at
		order.Touch(actor, at)
		changed = true
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.logger.Info("Archived production order", zap.String("order_id", id), zap.String("actor", actor.Label()))
		go s.auditLog.Log("archive", actor, map[string]interface{}{"archived_at": order.ArchivedAt}, order)
	}
	return order, nil
}

// Unarchive restores the order to the active views and sends it back to the
// request column.
func (s *ArchiveService) Unarchive(ctx context.Context, id string, actor models.Actor) (*models.ProductionOrder, error) {
	var previous metadata.OrderStatus
	order, err := s.update(ctx, id, func(order *models.ProductionOrder, at time.Time) (bool, error) {
		if !order.Archived {
			return false, &custom_error.ConflictError{Message: "production order " + order.ID + " is not archived"}
		}
		previous = order.Status
		order.Archived = false
		order.ArchivedAt = nil
		order.Status = metadata.OrderSolicitacao
		order.Touch(actor, at)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Unarchived production order", zap.String("order_id", id), zap.String("actor", actor.Label()))
	go s.auditLog.Log("unarchive", actor, map[string]interface{}{"from": previous, "to": order.Status}, order)
	return order, nil
}

// Search matches term exactly against order number, SKU and ZIP and as a
// prefix against customer name, city, street and engraving.
func (s *ArchiveService) Search(ctx context.Context, term string) ([]models.ProductionOrder, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, custom_error.NewValidationError("q", "must not be empty")
	}

	results := []models.ProductionOrder{}
	seen := make(map[string]struct{})
	err := s.store.View(ctx, func(tx store.Tx) error {
		for _, p := range searchPredicates {
			orders, err := tx.Orders().Search(ctx, store.SearchPredicate{Field: p.field, Term: term, Prefix: p.prefix})
			if err != nil {
				return err
			}
			for _, o := range orders {
				if _, ok := seen[o.ID]; ok {
					continue
				}
				seen[o.ID] = struct{}{}
				results = append(results, o)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortByArchivedAt(results)
	return results, nil
}

// Page returns the archive page reached from token by moving in direction.
// An empty token is the first page.
func (s *ArchiveService) Page(ctx context.Context, token string, direction Direction) (*Page, error) {
	state, err := decodeToken(token)
	if err != nil {
		return nil, err
	}
	if token == "" {
		direction = DirectionFirst
	}
	state, err = state.move(direction)
	if err != nil {
		return nil, err
	}

	var orders []models.ProductionOrder
	err = s.store.View(ctx, func(tx store.Tx) error {
		var err error
		orders, err = tx.Orders().ArchivePage(ctx, state.Start, s.pageSize+1)
		return err
	})
	if err != nil {
		return nil, err
	}

	hasNext := len(orders) > s.pageSize
	if hasNext {
		orders = orders[:s.pageSize]
		last := orders[len(orders)-1]
		state.Last = &store.Cursor{ArchivedAt: *last.ArchivedAt, ID: last.ID}
	}
	if orders == nil {
		orders = []models.ProductionOrder{}
	}

	return &Page{
		Orders:  orders,
		Token:   state.encode(),
		HasNext: hasNext,
		HasPrev: len(state.Stack) > 0,
	}, nil
}

func (s *ArchiveService) update(ctx context.Context, id string, mutate func(order *models.ProductionOrder, at time.Time) (bool, error)) (*models.ProductionOrder, error) {
	at := s.now()
	var updated *models.ProductionOrder
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		order, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}
		write, err := mutate(order, at)
		if err != nil {
			return err
		}
		if write {
			if err := tx.Orders().Update(ctx, *order); err != nil {
				return err
			}
			order.Version++
			tx.Touch(store.CollectionOrders)
		}
		updated = order
		return nil
	})
	return updated, err
}

// sortByArchivedAt orders newest archive first, id desc on ties, undated last.
func sortByArchivedAt(orders []models.ProductionOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].ArchivedAt, orders[j].ArchivedAt
		switch {
		case a == nil && b == nil:
			return orders[i].ID > orders[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		default:
			return orders[i].ID > orders[j].ID
		}
	})
}
