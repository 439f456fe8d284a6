package reservations

import (
	"context"
	"strings"
	"time"

	"semprejoias/internal/inventory/ledger"
	"semprejoias/internal/store"
	"semprejoias/pkg/auditlog"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateReservationRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Note     string `json:"note"`
	Customer string `json:"customer"`
}

// CreateReservationResult carries the availability after the promise was
// made. A negative value is a warning for the operator, not an error.
type CreateReservationResult struct {
	Reservation  models.Reservation  `json:"reservation"`
	Availability ledger.Availability `json:"availability"`
	Warning      string              `json:"warning,omitempty"`
}

type ReservationService struct {
	store    store.Store
	auditLog *auditlog.Auditlog
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewReservationService(s store.Store, a *auditlog.Auditlog, logger *zap.Logger) *ReservationService {
	return &ReservationService{
		store:    s,
		auditLog: a,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

func (s *ReservationService) CreateReservation(ctx context.Context, req CreateReservationRequest, actor models.Actor) (*CreateReservationResult, error) {
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, custom_error.NewValidationError("sku", "must not be empty")
	}
	if req.Quantity <= 0 {
		return nil, custom_error.NewValidationError("quantity", "must be positive")
	}

	reservation := models.Reservation{
		ID:        s.newID(),
		SKU:       sku,
		Quantity:  req.Quantity,
		Note:      strings.TrimSpace(req.Note),
		Customer:  strings.TrimSpace(req.Customer),
		Status:    metadata.ReservationPending,
		CreatedAt: s.now(),
		CreatedBy: actor.Label(),
	}

	result := &CreateReservationResult{}
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Reservations().Insert(ctx, reservation); err != nil {
			return err
		}
		tx.Touch(store.CollectionReservations)

		availability, err := ledger.Compute(ctx, tx, []string{sku})
		if err != nil {
			return err
		}
		result.Availability = availability[0]
		return nil
	})
	if err != nil {
		return nil, err
	}

	reservation.Version = 1
	result.Reservation = reservation
	if result.Availability.Oversold {
		result.Warning = "reserved quantity exceeds units in stock"
		s.logger.Warn("Reservation oversells stock",
			zap.String("sku", sku),
			zap.Int("available", result.Availability.Available),
		)
	}

	s.logger.Info("Created reservation",
		zap.String("reservation_id", reservation.ID),
		zap.String("sku", sku),
		zap.Int("quantity", reservation.Quantity),
		zap.String("actor", actor.Label()),
	)
	go s.auditLog.Log(
		"create",
		actor,
		map[string]interface{}{"sku": sku, "quantity": reservation.Quantity, "customer": reservation.Customer},
		&reservation,
	)

	return result, nil
}

func (s *ReservationService) DeleteReservation(ctx context.Context, id string, actor models.Actor) error {
	var deleted *models.Reservation
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		reservation, err := tx.Reservations().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Reservations().Delete(ctx, id); err != nil {
			return err
		}
		tx.Touch(store.CollectionReservations)
		deleted = reservation
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Deleted reservation", zap.String("reservation_id", id), zap.String("actor", actor.Label()))
	go s.auditLog.Log(
		"delete",
		actor,
		map[string]interface{}{"sku": deleted.SKU, "quantity": deleted.Quantity},
		deleted,
	)
	return nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation *models.Reservation
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		reservation, err = tx.Reservations().Get(ctx, id)
		return err
	})
	return reservation, err
}

func (s *ReservationService) ListReservations(ctx context.Context, filter store.Filter) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		reservations, err = tx.Reservations().List(ctx, filter)
		return err
	})
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	return reservations, err
}
