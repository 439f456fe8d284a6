// Package conflicts classifies bulk stock-consuming operations against
// pending reservations and applies the resolution the operator picked.
package conflicts

import (
	"context"

	"semprejoias/internal/inventory/ledger"
	"semprejoias/internal/store"
	"semprejoias/pkg/auditlog"
	custom_error "semprejoias/pkg/errors"
	"semprejoias/pkg/models"

	"go.uber.org/zap"
)

type Line struct {
	SKU         string `json:"sku"`
	Requested   int    `json:"requested"`
	InStock     int    `json:"inStock"`
	Reserved    int    `json:"reserved"`
	Free        int    `json:"free"`
	Conflicting bool   `json:"conflicting"`
}

type Classification struct {
	Lines       []Line   `json:"lines"`
	Conflicting []string `json:"conflicting"`
}

func (c *Classification) HasConflicts() bool {
	return len(c.Conflicting) > 0
}

type BulkSaleRequest struct {
	Items      map[string]int `json:"items" binding:"required"`
	Resolution string         `json:"resolution"`
}

type BulkSaleResult struct {
	Classification *Classification    `json:"classification"`
	Resolution     Resolution         `json:"resolution,omitempty"`
	Sale           *ledger.SaleResult `json:"sale,omitempty"`
	Cancelled      bool               `json:"cancelled,omitempty"`
}

type ConflictService struct {
	store    store.Store
	ledger   *ledger.LedgerService
	auditLog *auditlog.Auditlog
	logger   *zap.Logger
}

func NewConflictService(s store.Store, l *ledger.LedgerService, a *auditlog.Auditlog, logger *zap.Logger) *ConflictService {
	return &ConflictService{store: s, ledger: l, auditLog: a, logger: logger}
}

// Classify scans every requested SKU; a SKU conflicts when requested > free.
func Classify(ctx context.Context, tx store.Tx, counts map[string]int) (*Classification, error) {
	skus := ledger.SortedSKUs(counts)
	availability, err := ledger.Compute(ctx, tx, skus)
	if err != nil {
		return nil, err
	}

	classification := &Classification{Lines: make([]Line, 0, len(skus)), Conflicting: []string{}}
	for _, a := range availability {
		line := Line{
			SKU:       a.SKU,
			Requested: counts[a.SKU],
			InStock:   a.InStock,
			Reserved:  a.Reserved,
			Free:      a.Available,
		}
		line.Conflicting = line.Requested > line.Free
		if line.Conflicting {
			classification.Conflicting = append(classification.Conflicting, a.SKU)
		}
		classification.Lines = append(classification.Lines, line)
	}
	return classification, nil
}

// Plan turns a classification into the per-SKU counts to sell. Cancel plans nothing.
func Plan(classification *Classification, resolution Resolution) map[string]int {
	plan := make(map[string]int, len(classification.Lines))
	switch resolution {
	case ResolutionForce:
		for _, line := range classification.Lines {
			plan[line.SKU] = line.Requested
		}
	case ResolutionSafe:
		for _, line := range classification.Lines {
			n := min(line.Requested, max(line.Free, 0))
			if n > 0 {
				plan[line.SKU] = n
			}
		}
	}
	return plan
}

func (s *ConflictService) ClassifyBulkSale(ctx context.Context, counts map[string]int) (*Classification, error) {
	normalized, err := ledger.NormalizeCounts(counts)
	if err != nil {
		return nil, err
	}

	var classification *Classification
	err = s.store.View(ctx, func(tx store.Tx) error {
		var err error
		classification, err = Classify(ctx, tx, normalized)
		return err
	})
	return classification, err
}

// BulkSale classifies and sells in one transaction, so the classification the
// resolution is applied to is the one in effect when units are marked sold.
// Without a resolution a conflicting request fails with a ConflictError that
// carries the classification.
func (s *ConflictService) BulkSale(ctx context.Context, req BulkSaleRequest, actor models.Actor) (*BulkSaleResult, error) {
	normalized, err := ledger.NormalizeCounts(req.Items)
	if err != nil {
		return nil, err
	}
	resolution, err := NewResolution(req.Resolution)
	if err != nil {
		return nil, err
	}

	if resolution == ResolutionCancel {
		classification, err := s.ClassifyBulkSale(ctx, normalized)
		if err != nil {
			return nil, err
		}
		s.logger.Info("Bulk sale cancelled by operator", zap.Strings("conflicting", classification.Conflicting))
		return &BulkSaleResult{Classification: classification, Resolution: resolution, Cancelled: true}, nil
	}

	result := &BulkSaleResult{Resolution: resolution}
	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		classification, err := Classify(ctx, tx, normalized)
		if err != nil {
			return err
		}
		result.Classification = classification

		if classification.HasConflicts() && resolution == ResolutionNone {
			return &custom_error.ConflictError{
				Message: "requested quantity exceeds free stock, choose force, safe or cancel",
				SKUs:    classification.Conflicting,
				Details: classification,
			}
		}

		effective := resolution
		if effective == ResolutionNone {
			effective = ResolutionForce
		}
		plan := Plan(classification, effective)
		if len(plan) == 0 {
			result.Sale = &ledger.SaleResult{Lines: []ledger.SaleLine{}}
			return nil
		}

		result.Sale, err = s.ledger.SellInTx(ctx, tx, plan, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Applied bulk sale",
		zap.String("resolution", string(resolution)),
		zap.Strings("conflicting", result.Classification.Conflicting),
		zap.String("actor", actor.Label()),
	)
	for _, line := range result.Sale.Lines {
		for _, id := range line.UnitIDs {
			go s.auditLog.Log(
				"bulk_sell",
				actor,
				map[string]interface{}{"sku": line.SKU, "resolution": resolution, "sold": line.Sold},
				&models.InventoryUnit{ID: id, SKU: line.SKU},
			)
		}
	}
	return result, nil
}
