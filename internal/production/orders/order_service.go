package orders

import (
	"context"
	"time"

	"semprejoias/internal/store"
	"semprejoias/pkg/auditlog"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"go.uber.org/zap"
)

const deleteOp = "delete_order"

type OrderService struct {
	store    store.Store
	policy   TransitionPolicy
	auditLog *auditlog.Auditlog
	logger   *zap.Logger

	now func() time.Time
}

func NewOrderService(s store.Store, policy TransitionPolicy, a *auditlog.Auditlog, logger *zap.Logger) *OrderService {
	if policy == nil {
		policy = PermissivePolicy{}
	}
	return &OrderService{
		store:    s,
		policy:   policy,
		auditLog: a,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListActive excludes archived orders.
func (s *OrderService) ListActive(ctx context.Context, filter store.Filter) ([]models.ProductionOrder, error) {
	filter.Archived = false

	var orders []models.ProductionOrder
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		orders, err = tx.Orders().List(ctx, filter)
		return err
	})
	if orders == nil {
		orders = []models.ProductionOrder{}
	}
	return orders, err
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.ProductionOrder, error) {
	var order *models.ProductionOrder
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		order, err = tx.Orders().Get(ctx, id)
		return err
	})
	return order, err
}

func (s *OrderService) AdvanceStatus(ctx context.Context, id string, value string, actor models.Actor) (*models.ProductionOrder, error) {
	next, err := metadata.NewOrderStatus(value)
	if err != nil {
		return nil, custom_error.NewValidationError("status", "%s", err.Error())
	}

	var previous metadata.OrderStatus
	order, err := s.update(ctx, id, actor, func(order *models.ProductionOrder) (bool, error) {
		if err := s.policy.Allow(order.Status, next); err != nil {
			return false, err
		}
		previous = order.Status
		if order.Status == next {
			return false, nil
		}
		order.Status = next
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	if previous != next {
		s.logger.Info("Advanced order status",
			zap.String("order_id", id),
			zap.String("from", previous.String()),
			zap.String("to", next.String()),
			zap.String("actor", actor.Label()),
		)
		go s.auditLog.Log("status", actor, map[string]interface{}{"from": previous, "to": next}, order)
	}
	return order, nil
}

// UpdateSpecs replaces the technical specs and forces the order to MODIFICADO
// whatever its current status.
func (s *OrderService) UpdateSpecs(ctx context.Context, id string, specs models.Specs, actor models.Actor) (*models.ProductionOrder, error) {
	var previous metadata.OrderStatus
	order, err := s.update(ctx, id, actor, func(order *models.ProductionOrder) (bool, error) {
		previous = order.Status
		order.Specs = specs
		order.Status = metadata.OrderModificado
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updated order specs", zap.String("order_id", id), zap.String("actor", actor.Label()))
	go s.auditLog.Log("specs", actor, map[string]interface{}{"from": previous, "to": order.Status, "specs": specs}, order)
	return order, nil
}

// ToggleTransit sets the physical custody direction. Setting the current
// direction again writes nothing and reports changed=false.
func (s *OrderService) ToggleTransit(ctx context.Context, id string, value string, actor models.Actor) (*models.ProductionOrder, bool, error) {
	direction, err := metadata.NewTransitStatus(value)
	if err != nil {
		return nil, false, custom_error.NewValidationError("transitStatus", "%s", err.Error())
	}

	var changed bool
	order, err := s.update(ctx, id, actor, func(order *models.ProductionOrder) (bool, error) {
		order.TransitStatus, changed = order.TransitStatus.Apply(direction)
		return changed, nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		go s.auditLog.Log("transit", actor, map[string]interface{}{"transit_status": order.TransitStatus}, order)
	}
	return order, changed, nil
}

// SetEffectiveCreatedAt stores the aging override next to the real creation time. Nil clears it.
func (s *OrderService) SetEffectiveCreatedAt(ctx context.Context, id string, at *time.Time, actor models.Actor) (*models.ProductionOrder, error) {
	order, err := s.update(ctx, id, actor, func(order *models.ProductionOrder) (bool, error) {
		if at == nil {
			order.EffectiveCreatedAt = nil
			return true, nil
		}
		if at.After(s.now()) {
			return false, custom_error.NewValidationError("effectiveCreatedAt", "must not be in the future")
		}
		value := at.UTC()
		order.EffectiveCreatedAt = &value
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	go s.auditLog.Log("effective_created_at", actor, map[string]interface{}{"effective_created_at": order.EffectiveCreatedAt}, order)
	return order, nil
}

// DeleteOrder removes the order and, in the same transaction, gives back the
// unit it consumed: an intercepted unit returns to its production queue state,
// a finished unit returns to stock.
func (s *OrderService) DeleteOrder(ctx context.Context, id string, actor models.Actor) (*DeleteResult, error) {
	at := s.now()
	result := &DeleteResult{OrderID: id}

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		order, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}

		if order.StockItemID != nil && (order.IsInterceptedPE || order.FromStock) {
			unit, err := tx.Units().Get(ctx, *order.StockItemID)
			if err != nil {
				return err
			}
			if unit.LinkedOrderID != nil && *unit.LinkedOrderID != order.ID {
				return &custom_error.ConflictError{
					Message: "unit " + unit.ID + " is linked to another order",
					SKUs:    []string{unit.SKU},
				}
			}

			if order.IsInterceptedPE {
				unit.Status = unit.PreInterception()
				unit.PreInterceptionStatus = nil
				unit.LinkedOrderID = nil
				unit.UpdatedAt = at
				result.Compensation = CompensationRequeued
			} else {
				unit.RestoreToStock(at)
				result.Compensation = CompensationRestocked
			}
			if err := tx.Units().Update(ctx, *unit); err != nil {
				return err
			}
			tx.Touch(store.CollectionUnits)
			result.Unit = unit
		}

		if err := tx.Orders().Delete(ctx, id); err != nil {
			return err
		}
		tx.Touch(store.CollectionOrders)
		result.order = order
		return nil
	})
	if err != nil {
		return nil, custom_error.Abort(deleteOp, err)
	}

	if result.Compensation == "" {
		result.Compensation = CompensationNone
	}
	s.logger.Info("Deleted production order",
		zap.String("order_id", id),
		zap.String("compensation", string(result.Compensation)),
		zap.String("actor", actor.Label()),
	)
	go s.auditLog.Log("delete", actor, map[string]interface{}{"compensation": result.Compensation}, result.order)
	if result.Unit != nil {
		go s.auditLog.Log("compensate", actor, map[string]interface{}{"order_id": id, "status": result.Unit.Status}, result.Unit)
	}
	return result, nil
}

// update loads, mutates and writes one order. mutate returns false to skip the write.
func (s *OrderService) update(ctx context.Context, id string, actor models.Actor, mutate func(order *models.ProductionOrder) (bool, error)) (*models.ProductionOrder, error) {
	var updated *models.ProductionOrder
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		order, err := tx.Orders().Get(ctx, id)
		if err != nil {
			return err
		}

		write, err := mutate(order)
		if err != nil {
			return err
		}
		if write {
			order.Touch(actor, s.now())
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
