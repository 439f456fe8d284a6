// Package catalog looks up display data for a SKU. It is read-only and never
// drives lifecycle decisions.
package catalog

import (
	"context"
	"strings"
	"sync"
)

type Item struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Model       string   `json:"model,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty"`
}

type Provider interface {
	GetCatalogItem(ctx context.Context, sku string) Item
}

// Placeholder is what callers get for SKUs the catalog does not know.
func Placeholder(sku string) Item {
	return Item{SKU: sku, Name: sku, Price: 0, Placeholder: true}
}

// StaticProvider serves a fixed in-process catalog.
type StaticProvider struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewStaticProvider(items ...Item) *StaticProvider {
	p := &StaticProvider{items: make(map[string]Item, len(items))}
	for _, item := range items {
		p.Put(item)
	}
	return p
}

func (p *StaticProvider) Put(item Item) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items[normalize(item.SKU)] = item
}

func (p *StaticProvider) GetCatalogItem(_ context.Context, sku string) Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if item, ok := p.items[normalize(sku)]; ok {
		return item
	}
	return Placeholder(sku)
}

func normalize(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
