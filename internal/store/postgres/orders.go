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
	"github.com/doug-martin/goqu/v9/exp"
)

const ordersTable = "production_orders"

// prefixUpperBound closes the [term, term+bound) range used for prefix predicates.
const prefixUpperBound = "\uf8ff"

type FlatOrderRecord struct {
	ID                 string     `db:"id"`
	OrderNumber        string     `db:"order_number"`
	SKU                string     `db:"sku"`
	Status             string     `db:"status"`
	TransitStatus      string     `db:"transit_status"`
	CustomerName       string     `db:"customer_name"`
	CustomerPhone      string     `db:"customer_phone"`
	CustomerEmail      string     `db:"customer_email"`
	ShipStreet         string     `db:"ship_street"`
	ShipNumber         string     `db:"ship_number"`
	ShipCity           string     `db:"ship_city"`
	ShipState          string     `db:"ship_state"`
	ShipZIP            string     `db:"ship_zip"`
	SpecSize           string     `db:"spec_size"`
	SpecMaterial       string     `db:"spec_material"`
	SpecStone          string     `db:"spec_stone"`
	Engraving          string     `db:"engraving"`
	SpecFinish         string     `db:"spec_finish"`
	SpecNotes          string     `db:"spec_notes"`
	FromStock          bool       `db:"from_stock"`
	IsInterceptedPE    bool       `db:"is_intercepted_pe"`
	StockItemID        *string    `db:"stock_item_id"`
	ReservationID      string     `db:"reservation_id"`
	Archived           bool       `db:"archived"`
	ArchivedAt         *time.Time `db:"archived_at"`
	CreatedAt          time.Time  `db:"created_at"`
	EffectiveCreatedAt *time.Time `db:"effective_created_at"`
	CreatedBy          string     `db:"created_by"`
	UpdatedAt          time.Time  `db:"updated_at"`
	UpdatedBy          string     `db:"updated_by"`
	Version            int        `db:"version"`
}

type orderRepository struct{ t *tx }

func (r *orderRepository) Insert(ctx context.Context, order models.ProductionOrder) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	record := orderRecord(order)
	record["version"] = 1

	if _, err := r.t.db.Insert(ordersTable).Rows(record).Executor().ExecContext(ctx); err != nil {
		return wrapWriteError(err, "failed to insert production order")
	}
	return nil
}

func (r *orderRepository) Get(ctx context.Context, id string) (*models.ProductionOrder, error) {
	var flat FlatOrderRecord
	query := r.t.lock(r.t.db.From(ordersTable).Where(goqu.Ex{"id": id}))

	found, err := query.ScanStructContext(ctx, &flat)
	if err != nil {
		return nil, fmt.Errorf("unable to select production order from database: %w", err)
	}
	if !found {
		return nil, custom_error.NewNotFound("production order", id)
	}

	order := transformToOrder(flat)
	return &order, nil
}

func (r *orderRepository) Update(ctx context.Context, order models.ProductionOrder) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	updates := orderRecord(order)
	delete(updates, "id")
	delete(updates, "created_at")
	updates["version"] = goqu.L("version + 1")

	result, err := r.t.db.Update(ordersTable).
		Set(updates).
		Where(goqu.Ex{"id": order.ID}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return wrapWriteError(err, "failed to update production order")
	}

	return expectAffected(result, "production order", order.ID)
}

func (r *orderRepository) Delete(ctx context.Context, id string) error {
	if err := r.t.writable(); err != nil {
		return err
	}

	result, err := r.t.db.Delete(ordersTable).
		Where(goqu.Ex{"id": id}).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete production order: %w", err)
	}

	return expectAffected(result, "production order", id)
}

func (r *orderRepository) List(ctx context.Context, filter store.Filter) ([]models.ProductionOrder, error) {
	conditions := repository.NewQueryBuilder()
	conditions.AddCondition("archived", filter.Archived)
	if filter.SKU != "" {
		conditions.AddCondition("sku", filter.SKU)
	}
	if filter.Status != "" {
		conditions.AddCondition("status", filter.Status)
	}

	query := r.t.db.From(ordersTable).
		Where(conditions.BuildConditions(nil)).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc())

	return r.scan(ctx, query)
}

func (r *orderRepository) Search(ctx context.Context, p store.SearchPredicate) ([]models.ProductionOrder, error) {
	query, err := searchQuery(r.t.db.From(ordersTable), p)
	if err != nil {
		return nil, err
	}
	return r.scan(ctx, query)
}

func (r *orderRepository) ArchivePage(ctx context.Context, after *store.Cursor, limit int) ([]models.ProductionOrder, error) {
	return r.scan(ctx, archivePageQuery(r.t.db.From(ordersTable), after, limit))
}

// searchQuery narrows base to archived orders matching p, exactly or as a prefix range.
func searchQuery(base *goqu.SelectDataset, p store.SearchPredicate) (*goqu.SelectDataset, error) {
	column, err := searchColumn(p.Field)
	if err != nil {
		return nil, err
	}

	var predicate exp.Expression
	if p.Prefix {
		predicate = goqu.And(
			goqu.C(column).Gte(p.Term),
			goqu.C(column).Lt(p.Term+prefixUpperBound),
		)
	} else {
		predicate = goqu.C(column).Eq(p.Term)
	}

	return base.
		Where(goqu.Ex{"archived": true}, predicate).
		Order(goqu.C("archived_at").Desc().NullsLast(), goqu.C("id").Desc()), nil
}

// archivePageQuery is a keyset page over (archived_at desc, id desc) starting after the cursor.
func archivePageQuery(base *goqu.SelectDataset, after *store.Cursor, limit int) *goqu.SelectDataset {
	query := base.
		Where(goqu.Ex{"archived": true}, goqu.C("archived_at").IsNotNull()).
		Order(goqu.C("archived_at").Desc(), goqu.C("id").Desc())

	if after != nil {
		query = query.Where(goqu.Or(
			goqu.C("archived_at").Lt(after.ArchivedAt),
			goqu.And(
				goqu.C("archived_at").Eq(after.ArchivedAt),
				goqu.C("id").Lt(after.ID),
			),
		))
	}
	if limit > 0 {
		query = query.Limit(uint(limit))
	}
	return query
}

func (r *orderRepository) scan(ctx context.Context, query *goqu.SelectDataset) ([]models.ProductionOrder, error) {
	var flatOrders []FlatOrderRecord
	if err := query.ScanStructsContext(ctx, &flatOrders); err != nil {
		return nil, fmt.Errorf("unable to select production orders from database: %w", err)
	}

	orders := make([]models.ProductionOrder, 0, len(flatOrders))
	for _, flat := range flatOrders {
		orders = append(orders, transformToOrder(flat))
	}
	return orders, nil
}

func searchColumn(field store.SearchField) (string, error) {
	switch field {
	case store.SearchOrderNumber, store.SearchCustomerName, store.SearchSKU,
		store.SearchCity, store.SearchStreet, store.SearchZIP, store.SearchEngraving:
		return string(field), nil
	default:
		return "", custom_error.NewValidationError("field", "unsupported search field %s", field)
	}
}

func orderRecord(o models.ProductionOrder) goqu.Record {
	o.Normalize()

	return goqu.Record{
		"id":                   o.ID,
		"order_number":         o.OrderNumber,
		"sku":                  o.SKU,
		"status":               string(o.Status),
		"transit_status":       string(o.TransitStatus),
		"customer_name":        o.Customer.Name,
		"customer_phone":       o.Customer.Phone,
		"customer_email":       o.Customer.Email,
		"ship_street":          o.Shipping.Street,
		"ship_number":          o.Shipping.Number,
		"ship_city":            o.Shipping.City,
		"ship_state":           o.Shipping.State,
		"ship_zip":             o.Shipping.ZIP,
		"spec_size":            o.Specs.Size,
		"spec_material":        o.Specs.Material,
		"spec_stone":           o.Specs.Stone,
		"engraving":            o.Specs.Engraving,
		"spec_finish":          o.Specs.Finish,
		"spec_notes":           o.Specs.Notes,
		"from_stock":           o.FromStock,
		"is_intercepted_pe":    o.IsInterceptedPE,
		"stock_item_id":        o.StockItemID,
		"reservation_id":       o.ReservationID,
		"archived":             o.Archived,
		"archived_at":          o.ArchivedAt,
		"created_at":           o.CreatedAt,
		"effective_created_at": o.EffectiveCreatedAt,
		"created_by":           o.CreatedBy,
		"updated_at":           o.UpdatedAt,
		"updated_by":           o.UpdatedBy,
	}
}

func transformToOrder(flat FlatOrderRecord) models.ProductionOrder {
	order := models.ProductionOrder{
		ID:            flat.ID,
		OrderNumber:   flat.OrderNumber,
		SKU:           flat.SKU,
		Status:        metadata.OrderStatus(flat.Status),
		TransitStatus: metadata.TransitStatus(flat.TransitStatus),
		Customer: models.Customer{
			Name:  flat.CustomerName,
			Phone: flat.CustomerPhone,
			Email: flat.CustomerEmail,
		},
		Shipping: models.Shipping{
			Street: flat.ShipStreet,
			Number: flat.ShipNumber,
			City:   flat.ShipCity,
			State:  flat.ShipState,
			ZIP:    flat.ShipZIP,
		},
		Specs: models.Specs{
			Size:      flat.SpecSize,
			Material:  flat.SpecMaterial,
			Stone:     flat.SpecStone,
			Engraving: flat.Engraving,
			Finish:    flat.SpecFinish,
			Notes:     flat.SpecNotes,
		},
		FromStock:          flat.FromStock,
		IsInterceptedPE:    flat.IsInterceptedPE,
		StockItemID:        flat.StockItemID,
		ReservationID:      flat.ReservationID,
		Archived:           flat.Archived,
		ArchivedAt:         flat.ArchivedAt,
		CreatedAt:          flat.CreatedAt,
		EffectiveCreatedAt: flat.EffectiveCreatedAt,
		CreatedBy:          flat.CreatedBy,
		UpdatedAt:          flat.UpdatedAt,
		UpdatedBy:          flat.UpdatedBy,
		Version:            flat.Version,
	}
	order.Normalize()
	return order
}
