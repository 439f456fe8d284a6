package ledger

import (
	"context"
	"sort"
	"strings"
	"time"

	"semprejoias/internal/catalog"
	"semprejoias/internal/store"
	"semprejoias/pkg/auditlog"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/metadata"
	"semprejoias/pkg/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LedgerService struct {
	store    store.Store
	catalog  catalog.Provider
	auditLog *auditlog.Auditlog
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewLedgerService(s store.Store, c catalog.Provider, a *auditlog.Auditlog, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:    s,
		catalog:  c,
		auditLog: a,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// AdjustQuantity adds delta new in_stock units, or takes |delta| of the
// oldest ones out of stock. A removal is all or nothing.
func (s *LedgerService) AdjustQuantity(ctx context.Context, req AdjustRequest, actor models.Actor) (*AdjustResult, error) {
	sku, err := validateSKU(req.SKU)
	if err != nil {
		return nil, err
	}
	if req.Delta == 0 {
		return nil, custom_error.NewValidationError("delta", "must not be zero")
	}

	at := s.now()
	result := &AdjustResult{SKU: sku, Delta: req.Delta}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if req.Delta > 0 {
			units := make([]models.InventoryUnit, 0, req.Delta)
			for i := 0; i < req.Delta; i++ {
				// a distinct timestamp per unit keeps FIFO order stable
				createdAt := at.Add(time.Duration(i) * time.Microsecond)
				units = append(units, models.InventoryUnit{
					ID:        s.newID(),
					SKU:       sku,
					Status:    metadata.UnitInStock,
					CreatedAt: createdAt,
					CreatedBy: actor.Label(),
					UpdatedAt: createdAt,
				})
			}
			if err := tx.Units().Insert(ctx, units); err != nil {
				return err
			}
			tx.Touch(store.CollectionUnits)
			result.Units = units
			return nil
		}

		count := -req.Delta
		if !req.Force {
			pending, err := tx.Reservations().ExistsForSKU(ctx, sku)
			if err != nil {
				return err
			}
			if pending {
				return &custom_error.ConflictError{
					Message: "SKU has pending reservations, confirm with force to remove stock",
					SKUs:    []string{sku},
				}
			}
		}

		units, err := tx.Units().OldestInStock(ctx, sku, count)
		if err != nil {
			return err
		}
		if len(units) < count {
			return &custom_error.InsufficientStockError{SKU: sku, Requested: count, Available: len(units)}
		}

		for i := range units {
			units[i].MarkRemoved(metadata.UnitAdjustedOut, models.RemovalReasonAdjustment, actor, at)
			if err := tx.Units().Update(ctx, units[i]); err != nil {
				return err
			}
		}
		tx.Touch(store.CollectionUnits)
		result.Units = units
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Adjusted stock quantity",
		zap.String("sku", sku),
		zap.Int("delta", req.Delta),
		zap.String("actor", actor.Label()),
	)
	for i := range result.Units {
		go s.auditLog.Log(
			"adjust",
			actor,
			map[string]interface{}{"sku": sku, "delta": req.Delta, "status": result.Units[i].Status},
			&result.Units[i],
		)
	}

	return result, nil
}

// SellItems marks up to the requested count of in_stock units sold per SKU.
// A short SKU is filled partially and never aborts its siblings. A request that
// would eat into reserved units fails with a ConflictError before anything is
// sold; the bulk sale route offers the force, safe and cancel choices.
func (s *LedgerService) SellItems(ctx context.Context, counts map[string]int, actor models.Actor) (*SaleResult, error) {
	normalized, err := NormalizeCounts(counts)
	if err != nil {
		return nil, err
	}

	var result *SaleResult
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := guardReserved(ctx, tx, normalized); err != nil {
			return err
		}
		var err error
		result, err = s.SellInTx(ctx, tx, normalized, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logSale(result, actor)
	return result, nil
}

// SellInTx runs a sale inside a transaction owned by the caller. counts must
// already be normalized.
func (s *LedgerService) SellInTx(ctx context.Context, tx store.Tx, counts map[string]int, actor models.Actor) (*SaleResult, error) {
	at := s.now()
	result := &SaleResult{}

	for _, sku := range SortedSKUs(counts) {
		requested := counts[sku]
		line := SaleLine{SKU: sku, Requested: requested, UnitIDs: []string{}}

		if requested > 0 {
			units, err := tx.Units().OldestInStock(ctx, sku, requested)
			if err != nil {
				return nil, err
			}
			for i := range units {
				units[i].MarkRemoved(metadata.UnitSold, models.RemovalReasonSale, actor, at)
				if err := tx.Units().Update(ctx, units[i]); err != nil {
					return nil, err
				}
				line.UnitIDs = append(line.UnitIDs, units[i].ID)
			}
			line.Sold = len(units)
		}

		if line.Sold < line.Requested {
			result.Partial = true
		}
		result.Lines = append(result.Lines, line)
	}

	tx.Touch(store.CollectionUnits)
	return result, nil
}

func (s *LedgerService) logSale(result *SaleResult, actor models.Actor) {
	for _, line := range result.Lines {
		s.logger.Info("Sold stock units",
			zap.String("sku", line.SKU),
			zap.Int("requested", line.Requested),
			zap.Int("sold", line.Sold),
			zap.String("actor", actor.Label()),
		)
		for _, id := range line.UnitIDs {
			go s.auditLog.Log(
				"sell",
				actor,
				map[string]interface{}{"sku": line.SKU, "requested": line.Requested, "sold": line.Sold},
				&models.InventoryUnit{ID: id, SKU: line.SKU},
			)
		}
	}
}

// HasPendingReservations guards destructive ledger operations.
func (s *LedgerService) HasPendingReservations(ctx context.Context, sku string) (bool, error) {
	sku, err := validateSKU(sku)
	if err != nil {
		return false, err
	}

	var pending bool
	err = s.store.View(ctx, func(tx store.Tx) error {
		pending, err = tx.Reservations().ExistsForSKU(ctx, sku)
		return err
	})
	return pending, err
}

// Availability reports in_stock minus reserved per SKU. The result may be
// negative; it is flagged, not prevented.
func (s *LedgerService) Availability(ctx context.Context, skus []string) ([]Availability, error) {
	normalized := make([]string, 0, len(skus))
	seen := make(map[string]struct{}, len(skus))
	for _, raw := range skus {
		sku, err := validateSKU(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[sku]; dup {
			continue
		}
		seen[sku] = struct{}{}
		normalized = append(normalized, sku)
	}
	if len(normalized) == 0 {
		return nil, custom_error.NewValidationError("sku", "at least one SKU is required")
	}

	var availability []Availability
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		availability, err = Compute(ctx, tx, normalized)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.catalog != nil {
		for i := range availability {
			item := s.catalog.GetCatalogItem(ctx, availability[i].SKU)
			availability[i].Item = &item
		}
	}
	return availability, nil
}

func (s *LedgerService) ListUnits(ctx context.Context, filter store.Filter) ([]models.InventoryUnit, error) {
	var units []models.InventoryUnit
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		units, err = tx.Units().List(ctx, filter)
		return err
	})
	if units == nil {
		units = []models.InventoryUnit{}
	}
	return units, err
}

// guardReserved rejects counts that exceed the free stock of a SKU with
// reservations. SKUs without reservations may still be filled partially.
func guardReserved(ctx context.Context, tx store.Tx, counts map[string]int) error {
	availability, err := Compute(ctx, tx, SortedSKUs(counts))
	if err != nil {
		return err
	}

	var (
		skus    []string
		details []Availability
	)
	for _, a := range availability {
		if a.Reserved > 0 && counts[a.SKU] > a.Available {
			skus = append(skus, a.SKU)
			details = append(details, a)
		}
	}
	if len(skus) == 0 {
		return nil
	}
	return &custom_error.ConflictError{
		Message: "sale would consume reserved units, use the bulk sale with a resolution",
		SKUs:    skus,
		Details: details,
	}
}

// Compute reads in_stock and reserved counts for skus inside tx.
func Compute(ctx context.Context, tx store.Tx, skus []string) ([]Availability, error) {
	inStock, err := tx.Units().CountInStock(ctx, skus)
	if err != nil {
		return nil, err
	}
	reserved, err := tx.Reservations().ReservedQuantity(ctx, skus)
	if err != nil {
		return nil, err
	}

	out := make([]Availability, 0, len(skus))
	for _, sku := range skus {
		out = append(out, NewAvailability(sku, inStock[sku], reserved[sku]))
	}
	return out, nil
}

// NormalizeCounts trims SKUs, merges duplicates and rejects non-positive counts.
func NormalizeCounts(counts map[string]int) (map[string]int, error) {
	if len(counts) == 0 {
		return nil, custom_error.NewValidationError("items", "at least one SKU is required")
	}
	out := make(map[string]int, len(counts))
	for raw, n := range counts {
		sku, err := validateSKU(raw)
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, custom_error.NewValidationError("quantity", "quantity for %s must be positive", sku)
		}
		out[sku] += n
	}
	return out, nil
}

func SortedSKUs(counts map[string]int) []string {
	skus := make([]string, 0, len(counts))
	for sku := range counts {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

func validateSKU(sku string) (string, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return "", custom_error.NewValidationError("sku", "must not be empty")
	}
	return sku, nil
}
