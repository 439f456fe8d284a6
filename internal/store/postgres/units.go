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

const unitsTable = "inventory_units"

type FlatUnitRecord struct {
	ID                    string     `db:"id"`
	SKU                   string     `db:"sku"`
	Status                string     `db:"status"`
	IsStockProduction     bool       `db:"is_stock_production"`
	CreatedAt             time.Time  `db:"created_at"`
	CreatedBy             string     `db:"created_by"`
	RemovedAt             *time.Time `db:"removed_at"`
	RemovedBy             *string    `db:"removed_by"`
	RemovalReason         *string    `db:"removal_reason"`
	LinkedOrderID         *string    `db:"linked_order_id"`
	PreInterceptionStatus *string    `db:"pre_interception_status"`
	UpdatedAt             time.Time  `db:"updated_at"`
	Version               int        `db:"version"`
}

type skuCount struct {
	SKU string `db:"sku"`
	N   int    `db:"n"`
}

type unitRepository struct{ t *tx }

func (r *unitRepository) Insert(ctx context.Context, units []models.InventoryUnit) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if len(units) == 0 {
		return nil
	}

	rows := make([]interface{}, 0, len(units))
	for _, u := range units {
		record := unitRecord(u)
		record["version"] = 1
		rows = append(rows, record)
	}

	if _, err := r.t.db.Insert(unitsTable).Rows(rows...).Executor().ExecContext(ctx); err != nil {
		return wrapWriteError(err, "failed to insert inventory units")
	}
	return nil
}

func (r *unitRepository) Get(ctx context.Context, id string) (*models.InventoryUnit, error) {
	var flat FlatUnitRecord
	query := r.t.lock(r.t.db.From(unitsTable).Where(goqu.Ex{"id": id}))

	found, err := query.ScanStructContext(ctx, &flat)
	if err != nil {
		return nil, fmt.Errorf("unable to select inventory unit from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("inventory unit", id)
	}

	unit := transformToUnit(flat)
	return &unit, nil
}

func (r *unitRepository) OldestInStock(ctx context.Context, sku string, limit int) ([]models.InventoryUnit, error) {
	return r.scan(ctx, r.t.lock(oldestInStockQuery(r.t.db.From(unitsTable), sku, limit)))
}

// oldestInStockQuery selects in_stock units of sku oldest first. A negative limit selects all.
func oldestInStockQuery(base *goqu.SelectDataset, sku string, limit int) *goqu.SelectDataset {
	query := base.
		Where(goqu.Ex{"sku": sku, "status": string(metadata.UnitInStock)}).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
	if limit >= 0 {
		query = query.Limit(uint(limit))
	}
	return query
}

func (r *unitRepository) Update(ctx context.Context, unit models.InventoryUnit) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	updates := unitRecord(unit)
	delete(updates, "id")
	delete(updates, "created_at")
	updates["version"] = goqu.L("version + 1")

	result, err := r.t.db.Update(unitsTable).
		Set(updates).
		Where(goqu.Ex{"id": unit.ID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return wrapWriteError(err, "failed to update inventory unit")
	}

	return expectAffected(result, "inventory unit", unit.ID)
}

func (r *unitRepository) CountInStock(ctx context.Context, skus []string) (map[string]int, error) {
	counts := make(map[string]int, len(skus))
	if len(skus) == 0 {
		return counts, nil
	}

	var rows []skuCount
	err := r.t.db.From(unitsTable).
		Select(goqu.C("sku"), goqu.COUNT("*").As("n")).
		Where(goqu.Ex{"sku": skus, "status": string(metadata.UnitInStock)}).
		GroupBy(goqu.C("sku")).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("unable to count in-stock units: %w", err)
	}

	for _, row := range rows {
		counts[row.SKU] = row.N
	}
	return counts, nil
}

func (r *unitRepository) List(ctx context.Context, filter store.Filter) ([]models.InventoryUnit, error) {
	conditions := repository.NewQueryBuilder()
	if filter.SKU != "" {
		conditions.AddCondition("sku", filter.SKU)
	}
	if filter.Status != "" {
		conditions.AddCondition("status", filter.Status)
	}

	query := r.t.db.From(unitsTable).Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())
	if conditions.HasConditions() {
		query = query.Where(conditions.BuildConditions(nil))
	}

	return r.scan(ctx, query)
}

func (r *unitRepository) scan(ctx context.Context, query *goqu.SelectDataset) ([]models.InventoryUnit, error) {
	var flatUnits []FlatUnitRecord
	if err := query.ScanStructsContext(ctx, &flatUnits); err != nil {
		return nil, fmt.Errorf("unable to select inventory units from database: %w", err)
	}

	units := make([]models.InventoryUnit, 0, len(flatUnits))
	for _, flat := range flatUnits {
		units = append(units, transformToUnit(flat))
	}
	return units, nil
}

func unitRecord(u models.InventoryUnit) goqu.Record {
	var preInterception *string
	if u.PreInterceptionStatus != nil {
		s := string(*u.PreInterceptionStatus)
		preInterception = &s
	}
	u.Normalize()

	return goqu.Record{
		"id":                      u.ID,
		"sku":                     u.SKU,
		"status":                  string(u.Status),
		"is_stock_production":     u.IsStockProduction,
		"created_at":              u.CreatedAt,
		"created_by":              u.CreatedBy,
		"removed_at":              u.RemovedAt,
		"removed_by":              u.RemovedBy,
		"removal_reason":          u.RemovalReason,
		"linked_order_id":         u.LinkedOrderID,
		"pre_interception_status": preInterception,
		"updated_at":              u.UpdatedAt,
	}
}

func transformToUnit(flat FlatUnitRecord) models.InventoryUnit {
	unit := models.InventoryUnit{
		ID:                flat.ID,
		SKU:               flat.SKU,
		Status:            metadata.UnitStatus(flat.Status),
		IsStockProduction: flat.IsStockProduction,
		CreatedAt:         flat.CreatedAt,
		CreatedBy:         flat.CreatedBy,
		RemovedAt:         flat.RemovedAt,
		RemovedBy:         flat.RemovedBy,
		RemovalReason:     flat.RemovalReason,
		LinkedOrderID:     flat.LinkedOrderID,
		UpdatedAt:         flat.UpdatedAt,
		Version:           flat.Version,
	}
	if flat.PreInterceptionStatus != nil {
		status := metadata.UnitStatus(*flat.PreInterceptionStatus)
		unit.PreInterceptionStatus = &status
	}
	unit.Normalize()
	return unit
}
