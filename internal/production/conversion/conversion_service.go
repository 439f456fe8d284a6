// Package conversion turns a reservation into a production order in a single
// transaction: insert the order, consume or intercept the backing unit when
// there is one, and delete the reservation. Any failure rolls back all three.
package conversion

import (
	"context"
	"strings"
	"time"

	"semprejoias/internal/store"
	"semprejoias/pkg/auditlog"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const abortOp = "convert_reservation"

type ConvertRequest struct {
	ReservationID   string          `json:"reservationId"`
	OrderNumber     string          `json:"orderNumber"`
	Status          string          `json:"status"`
	Customer        models.Customer `json:"customer"`
	Shipping        models.Shipping `json:"shipping"`
	Specs           models.Specs    `json:"specs"`
	FromStock       bool            `json:"fromStock"`
	IsInterceptedPE bool            `json:"isInterceptedPE"`
	StockItemID     string          `json:"stockItemId"`
}

type ConversionService struct {
	store    store.Store
	auditLog *auditlog.Auditlog
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewConversionService(s store.Store, a *auditlog.Auditlog, logger *zap.Logger) *ConversionService {
	return &ConversionService{
		store:    s,
		auditLog: a,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *ConversionService) Convert(ctx context.Context, req ConvertRequest, actor models.Actor) (*models.ProductionOrder, error) {
	status, err := validate(&req)
	if err != nil {
		return nil, err
	}

	at := s.now()
	order := models.ProductionOrder{
		ID:              s.newID(),
		OrderNumber:     strings.TrimSpace(req.OrderNumber),
		Status:          status,
		TransitStatus:   metadata.TransitNone,
		Customer:        req.Customer,
		Shipping:        req.Shipping,
		Specs:           req.Specs,
		FromStock:       req.FromStock,
		IsInterceptedPE: req.IsInterceptedPE,
		ReservationID:   req.ReservationID,
		CreatedAt:       at,
		CreatedBy:       actor.Label(),
		UpdatedAt:       at,
		UpdatedBy:       actor.Label(),
	}
	if req.StockItemID != "" {
		stockItemID := req.StockItemID
		order.StockItemID = &stockItemID
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		reservation, err := tx.Reservations().Get(ctx, req.ReservationID)
		if err != nil {
			return err
		}
		order.SKU = reservation.SKU
		if order.Customer.Name == "" {
			order.Customer.Name = reservation.Customer
		}
		if order.Specs.Notes == "" {
			order.Specs.Notes = reservation.Note
		}
		if order.OrderNumber == "" {
			order.OrderNumber = order.ID
		}

		if err := tx.Orders().Insert(ctx, order); err != nil {
			return err
		}
		tx.Touch(store.CollectionOrders)

		if order.FromStock {
			if err := s.claimUnit(ctx, tx, order, reservation.SKU, actor, at); err != nil {
				return err
			}
			tx.Touch(store.CollectionUnits)
		}

		if err := tx.Reservations().Delete(ctx, reservation.ID); err != nil {
			return err
		}
		tx.Touch(store.CollectionReservations)
		return nil
	})
	if err != nil {
		s.logger.Warn("Reservation conversion aborted",
			zap.String("reservation_id", req.ReservationID),
			zap.String("actor", actor.Label()),
			zap.Error(err),
		)
		return nil, custom_error.Abort(abortOp, err)
	}

	order.Version = 1
	s.logger.Info("Converted reservation to production order",
		zap.String("reservation_id", req.ReservationID),
		zap.String("order_id", order.ID),
		zap.String("sku", order.SKU),
		zap.Bool("from_stock", order.FromStock),
		zap.Bool("intercepted_pe", order.IsInterceptedPE),
		zap.String("actor", actor.Label()),
	)
	go s.auditLog.Log(
		"convert",
		actor,
		map[string]interface{}{
			"reservation_id": req.ReservationID,
			"sku":            order.SKU,
			"status":         order.Status,
			"stock_item_id":  req.StockItemID,
		},
		&order,
	)

	return &order, nil
}

// claimUnit consumes a finished unit or intercepts a unit from the stock
// production queue, linking it to the order so deletion can give it back.
func (s *ConversionService) claimUnit(ctx context.Context, tx store.Tx, order models.ProductionOrder, sku string, actor models.Actor, at time.Time) error {
	unit, err := tx.Units().Get(ctx, *order.StockItemID)
	if err != nil {
		return err
	}
	if unit.SKU != sku {
		return custom_error.NewValidationError("stockItemId", "unit %s is %s, reservation is for %s", unit.ID, unit.SKU, sku)
	}

	orderID := order.ID
	if order.IsInterceptedPE {
		if !unit.Status.IsProductionQueue() {
			return &custom_error.ConflictError{
				Message: "unit " + unit.ID + " is no longer in the stock production queue",
				SKUs:    []string{sku},
			}
		}
		previous := unit.Status
		unit.PreInterceptionStatus = &previous
		unit.Status = metadata.UnitPEIntercepted
		unit.LinkedOrderID = &orderID
		unit.UpdatedAt = at
		return tx.Units().Update(ctx, *unit)
	}

	if unit.Status != metadata.UnitInStock {
		return &custom_error.ConflictError{
			Message: "unit " + unit.ID + " is no longer in stock",
			SKUs:    []string{sku},
		}
	}
	unit.MarkRemoved(metadata.UnitSold, models.RemovalReasonOrder, actor, at)
	unit.LinkedOrderID = &orderID
	return tx.Units().Update(ctx, *unit)
}

func validate(req *ConvertRequest) (metadata.OrderStatus, error) {
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	req.StockItemID = strings.TrimSpace(req.StockItemID)
	if req.ReservationID == "" {
		return "", custom_error.NewValidationError("reservationId", "must not be empty")
	}
	if req.IsInterceptedPE {
		req.FromStock = true
	}
	if req.FromStock && req.StockItemID == "" {
		return "", custom_error.NewValidationError("stockItemId", "is required when fulfilling from stock")
	}
	if !req.FromStock && req.StockItemID != "" {
		return "", custom_error.NewValidationError("stockItemId", "is only allowed when fulfilling from stock")
	}

	if strings.TrimSpace(req.Status) == "" {
		return metadata.OrderSolicitacao, nil
	}
	status, err := metadata.NewOrderStatus(req.Status)
	if err != nil {
		return "", custom_error.NewValidationError("status", "%s", err.Error())
	}
	return status, nil
}
