package ledger

import (
	"semprejoias/internal/catalog"
	"semprejoias/pkg/models"
)

type AdjustRequest struct {
	SKU   string `json:"sku" binding:"required"`
	Delta int    `json:"delta" binding:"required"`
	Force bool   `json:"force"`
}

type AdjustResult struct {
	SKU   string                 `json:"sku"`
	Delta int                    `json:"delta"`
	Units []models.InventoryUnit `json:"units"`
}

type SellRequest struct {
	Items map[string]int `json:"items" binding:"required"`
}

type SaleLine struct {
	SKU       string   `json:"sku"`
	Requested int      `json:"requested"`
	Sold      int      `json:"sold"`
	UnitIDs   []string `json:"unitIds"`
}

type SaleResult struct {
	Lines   []SaleLine `json:"lines"`
	Partial bool       `json:"partial"`
}

// Sold returns the count sold for sku, zero if it was not part of the sale.
func (r *SaleResult) Sold(sku string) int {
	for _, line := range r.Lines {
		if line.SKU == sku {
			return line.Sold
		}
	}
	return 0
}

type Availability struct {
	SKU       string        `json:"sku"`
	InStock   int           `json:"inStock"`
	Reserved  int           `json:"reserved"`
	Available int           `json:"available"`
	Oversold  bool          `json:"oversold"`
	Item      *catalog.Item `json:"item,omitempty"`
}

func NewAvailability(sku string, inStock, reserved int) Availability {
	available := inStock - reserved
	return Availability{
		SKU:       sku,
		InStock:   inStock,
		Reserved:  reserved,
		Available: available,
		Oversold:  available < 0,
	}
}
