package memory

import (
	"context"
	"sort"
	"strings"

	"semprejoias/internal/store"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"
)

type unitRepository struct{ t *tx }

func (r unitRepository) Insert(_ context.Context, units []models.InventoryUnit) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	for _, u := range units {
		if _, exists := r.t.state.units[u.ID]; exists {
			return custom_error.WrapDBError("duplicate inventory unit "+u.ID, "23505")
		}
	}
	for _, u := range units {
		u.Version = 1
		r.t.state.units[u.ID] = u
	}
	return nil
}

func (r unitRepository) Get(_ context.Context, id string) (*models.InventoryUnit, error) {
	u, ok := r.t.state.units[id]
	if !ok {
		return nil, custom_error.NewNotFound("inventory unit", id)
	}
	return &u, nil
}

func (r unitRepository) OldestInStock(_ context.Context, sku string, limit int) ([]models.InventoryUnit, error) {
	units := r.filter(store.Filter{SKU: sku, Status: string(metadata.UnitInStock)})
	if limit >= 0 && len(units) > limit {
		units = units[:limit]
	}
	return units, nil
}

func (r unitRepository) Update(_ context.Context, unit models.InventoryUnit) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	current, ok := r.t.state.units[unit.ID]
	if !ok {
		return custom_error.NewNotFound("inventory unit", unit.ID)
	}
	unit.Version = current.Version + 1
	r.t.state.units[unit.ID] = unit
	return nil
}

func (r unitRepository) CountInStock(_ context.Context, skus []string) (map[string]int, error) {
	wanted := toSet(skus)
	counts := make(map[string]int, len(skus))
	for _, u := range r.t.state.units {
		if _, ok := wanted[u.SKU]; ok && u.Status == metadata.UnitInStock {
			counts[u.SKU]++
		}
	}
	return counts, nil
}

func (r unitRepository) List(_ context.Context, filter store.Filter) ([]models.InventoryUnit, error) {
	return r.filter(filter), nil
}

func (r unitRepository) filter(filter store.Filter) []models.InventoryUnit {
	var out []models.InventoryUnit
	for _, u := range r.t.state.units {
		if filter.SKU != "" && u.SKU != filter.SKU {
			continue
		}
		if filter.Status != "" && string(u.Status) != filter.Status {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type reservationRepository struct{ t *tx }

func (r reservationRepository) Insert(_ context.Context, reservation models.Reservation) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, exists := r.t.state.reservations[reservation.ID]; exists {
		return custom_error.WrapDBError("duplicate reservation "+reservation.ID, "23505")
	}
	reservation.Version = 1
	r.t.state.reservations[reservation.ID] = reservation
	return nil
}

func (r reservationRepository) Get(_ context.Context, id string) (*models.Reservation, error) {
	res, ok := r.t.state.reservations[id]
	if !ok {
		return nil, custom_error.NewNotFound("reservation", id)
	}
	return &res, nil
}

func (r reservationRepository) Delete(_ context.Context, id string) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, ok := r.t.state.reservations[id]; !ok {
		return custom_error.NewNotFound("reservation", id)
	}
	delete(r.t.state.reservations, id)
	return nil
}

func (r reservationRepository) ReservedQuantity(_ context.Context, skus []string) (map[string]int, error) {
	wanted := toSet(skus)
	totals := make(map[string]int, len(skus))
	for _, res := range r.t.state.reservations {
		if _, ok := wanted[res.SKU]; ok {
			totals[res.SKU] += res.Quantity
		}
	}
	return totals, nil
}

func (r reservationRepository) ExistsForSKU(_ context.Context, sku string) (bool, error) {
	for _, res := range r.t.state.reservations {
		if res.SKU == sku {
			return true, nil
		}
	}
	return false, nil
}

func (r reservationRepository) List(_ context.Context, filter store.Filter) ([]models.Reservation, error) {
	var out []models.Reservation
	for _, res := range r.t.state.reservations {
		if filter.SKU != "" && res.SKU != filter.SKU {
			continue
		}
		if filter.Status != "" && string(res.Status) != filter.Status {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type orderRepository struct{ t *tx }

func (r orderRepository) Insert(_ context.Context, order models.ProductionOrder) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, exists := r.t.state.orders[order.ID]; exists {
		return custom_error.WrapDBError("duplicate production order "+order.ID, "23505")
	}
	order.Version = 1
	r.t.state.orders[order.ID] = order
	return nil
}

func (r orderRepository) Get(_ context.Context, id string) (*models.ProductionOrder, error) {
	o, ok := r.t.state.orders[id]
	if !ok {
		return nil, custom_error.NewNotFound("production order", id)
	}
	return &o, nil
}

func (r orderRepository) Update(_ context.Context, order models.ProductionOrder) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	current, ok := r.t.state.orders[order.ID]
	if !ok {
		return custom_error.NewNotFound("production order", order.ID)
	}
	order.Version = current.Version + 1
	r.t.state.orders[order.ID] = order
	return nil
}

func (r orderRepository) Delete(_ context.Context, id string) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	if _, ok := r.t.state.orders[id]; !ok {
		return custom_error.NewNotFound("production order", id)
	}
	delete(r.t.state.orders, id)
	return nil
}

func (r orderRepository) List(_ context.Context, filter store.Filter) ([]models.ProductionOrder, error) {
	var out []models.ProductionOrder
	for _, o := range r.t.state.orders {
		if o.Archived != filter.Archived {
			continue
		}
		if filter.SKU != "" && o.SKU != filter.SKU {
			continue
		}
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r orderRepository) Search(_ context.Context, p store.SearchPredicate) ([]models.ProductionOrder, error) {
	var out []models.ProductionOrder
	for _, o := range r.t.state.orders {
		if !o.Archived {
			continue
		}
		value, ok := searchValue(o, p.Field)
		if !ok {
			return nil, custom_error.NewValidationError("field", "unsupported search field %s", p.Field)
		}
		if p.Prefix && strings.HasPrefix(value, p.Term) || !p.Prefix && value == p.Term {
			out = append(out, o)
		}
	}
	sortArchive(out)
	return out, nil
}

func (r orderRepository) ArchivePage(_ context.Context, after *store.Cursor, limit int) ([]models.ProductionOrder, error) {
	var out []models.ProductionOrder
	for _, o := range r.t.state.orders {
		if !o.Archived || o.ArchivedAt == nil {
			continue
		}
		if after != nil && !isAfter(o, *after) {
			continue
		}
		out = append(out, o)
	}
	sortArchive(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func searchValue(o models.ProductionOrder, field store.SearchField) (string, bool) {
	switch field {
	case store.SearchOrderNumber:
		return o.OrderNumber, true
	case store.SearchCustomerName:
		return o.Customer.Name, true
	case store.SearchSKU:
		return o.SKU, true
	case store.SearchCity:
		return o.Shipping.City, true
	case store.SearchStreet:
		return o.Shipping.Street, true
	case store.SearchZIP:
		return o.Shipping.ZIP, true
	case store.SearchEngraving:
		return o.Specs.Engraving, true
	default:
		return "", false
	}
}

// isAfter follows the archive sort: archivedAt desc, id desc.
func isAfter(o models.ProductionOrder, c store.Cursor) bool {
	if o.ArchivedAt.Equal(c.ArchivedAt) {
		return o.ID < c.ID
	}
	return o.ArchivedAt.Before(c.ArchivedAt)
}

func sortArchive(orders []models.ProductionOrder) {
	sort.Slice(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.ArchivedAt == nil || b.ArchivedAt == nil {
			return a.ID > b.ID
		}
		if !a.ArchivedAt.Equal(*b.ArchivedAt) {
			return a.ArchivedAt.After(*b.ArchivedAt)
		}
		return a.ID > b.ID
	})
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
