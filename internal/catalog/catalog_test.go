package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(Item{SKU: "RING-07", Name: "Solitaire ring", Price: 1290, Model: "solitaire"})

	t.Run("known sku is case insensitive", func(t *testing.T) {
		item := p.GetCatalogItem(context.Background(), " ring-07 ")
		assert.Equal(t, "Solitaire ring", item.Name)
		assert.False(t, item.Placeholder)
	})

	t.Run("unknown sku gets a placeholder", func(t *testing.T) {
		item := p.GetCatalogItem(context.Background(), "PEND-01")
		assert.Equal(t, Item{SKU: "PEND-01", Name: "PEND-01", Placeholder: true}, item)
	})
}
