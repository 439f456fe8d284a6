package postgres

import (
	"context"
	"fmt"
	"time"

	"semprejoias/internal/repository"
	"semprejoias/internal/store"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

const reservationsTable = "reservations"

type FlatReservationRecord struct {
	ID        string    `db:"id"`
	SKU       string    `db:"sku"`
	Quantity  int       `db:"quantity"`
	Note      string    `db:"note"`
	Customer  string    `db:"customer"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	CreatedBy string    `db:"created_by"`
	Version   int       `db:"version"`
}

type reservationRepository struct{ t *tx }

func (r *reservationRepository) Insert(ctx context.Context, reservation models.Reservation) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	reservation.Normalize()

	query := r.t.db.Insert(reservationsTable).
		Rows(goqu.Record{
			"id":         reservation.ID,
			"sku":        reservation.SKU,
			"quantity":   reservation.Quantity,
			"note":       reservation.Note,
			"customer":   reservation.Customer,
			"status":     string(reservation.Status),
			"created_at": reservation.CreatedAt,
			"created_by": reservation.CreatedBy,
			"version":    1,
		})

	if _, err := query.Executor().ExecContext(ctx); err != nil {
		return wrapWriteError(err, "failed to insert reservation")
	}
	return nil
}

func (r *reservationRepository) Get(ctx context.Context, id string) (*models.Reservation, error) {
	var flat FlatReservationRecord
	query := r.t.lock(r.t.db.From(reservationsTable).Where(goqu.Ex{"id": id}))

	found, err := query.ScanStructContext(ctx, &flat)
	if err != nil {
		return nil, fmt.Errorf("unable to select reservation from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("reservation", id)
	}

	reservation := transformToReservation(flat)
	return &reservation, nil
}

func (r *reservationRepository) Delete(ctx context.Context, id string) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	result, err := r.t.db.Delete(reservationsTable).
		Where(goqu.Ex{"id": id}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}

	return expectAffected(result, "reservation", id)
}

func (r *reservationRepository) ReservedQuantity(ctx context.Context, skus []string) (map[string]int, error) {
	totals := make(map[string]int, len(skus))
	if len(skus) == 0 {
		return totals, nil
	}

	var rows []skuCount
	err := r.t.db.From(reservationsTable).
		Select(goqu.C("sku"), goqu.L("COALESCE(SUM(quantity), 0)::int").As("n")).
		Where(goqu.Ex{"sku": skus}).
		GroupBy(goqu.C("sku")).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("unable to sum reserved quantities: %w", err)
	}

	for _, row := range rows {
		totals[row.SKU] = row.N
	}
	return totals, nil
}

func (r *reservationRepository) ExistsForSKU(ctx context.Context, sku string) (bool, error) {
	count, err := r.t.db.From(reservationsTable).
		Where(goqu.Ex{"sku": sku}).
		CountContext(ctx)
	if err != nil {
		return false, fmt.Errorf("unable to check reservations for %s: %w", sku, err)
	}
	return count > 0, nil
}

func (r *reservationRepository) List(ctx context.Context, filter store.Filter) ([]models.Reservation, error) {
	conditions := repository.NewQueryBuilder()
	if filter.SKU != "" {
		conditions.AddCondition("sku", filter.SKU)
	}
	if filter.Status != "" {
		conditions.AddCondition("status", filter.Status)
	}

	query := r.t.db.From(reservationsTable).Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
	if conditions.HasConditions() {
		query = query.Where(conditions.BuildConditions(nil))
	}

	var flatReservations []FlatReservationRecord
	if err := query.ScanStructsContext(ctx, &flatReservations); err != nil {
		return nil, fmt.Errorf("unable to select reservations from database: %w", err)
	}

	reservations := make([]models.Reservation, 0, len(flatReservations))
	for _, flat := range flatReservations {
		reservations = append(reservations, transformToReservation(flat))
	}
	return reservations, nil
}

func transformToReservation(flat FlatReservationRecord) models.Reservation {
	reservation := models.Reservation{
		ID:        flat.ID,
		SKU:       flat.SKU,
		Quantity:  flat.Quantity,
		Note:      flat.Note,
		Customer:  flat.Customer,
		Status:    metadata.ReservationStatus(flat.Status),
		CreatedAt: flat.CreatedAt,
		CreatedBy: flat.CreatedBy,
		Version:   flat.Version,
	}
	reservation.Normalize()
	return reservation
}
