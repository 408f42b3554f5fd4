package receiving

import (
	"context"
	"sync"

	"stockroom/internal/core/apperror"
	"stockroom/internal/core/types"
)

// MemoryCatalog is a Catalog backed by a map. Used for demo mode and tests.
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[string]ItemSnapshot
}

// NewMemoryCatalog creates a catalog seeded with items.
func NewMemoryCatalog(items ...ItemSnapshot) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[string]ItemSnapshot, len(items))}
	for _, it := range items {
		c.items[it.ItemRef] = it
	}
	return c
}

// Put adds or replaces an item.
func (c *MemoryCatalog) Put(item ItemSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ItemRef] = item
}

// GetItem implements Catalog.
func (c *MemoryCatalog) GetItem(_ context.Context, itemRef string) (ItemSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[itemRef]
	if !ok {
		return ItemSnapshot{}, apperror.NewNotFound("item", itemRef)
	}
	return it, nil
}

var _ Catalog = (*MemoryCatalog)(nil)

// DemoItems returns a small pharmacy catalog used by demo mode and the seed tool.
func DemoItems() []ItemSnapshot {
	return []ItemSnapshot{
		{ItemRef: "AMX-250", Name: "Amoxicillin 250mg caps", SellingPrice: types.MustMoney("12.50"), LastBuyingPrice: types.MustMoney("8.20"), StockOnHand: 340},
		{ItemRef: "PCM-500", Name: "Paracetamol 500mg tabs", SellingPrice: types.MustMoney("2.00"), LastBuyingPrice: types.MustMoney("1.10"), StockOnHand: 1200},
		{ItemRef: "ORS-SACH", Name: "Oral rehydration salts sachet", SellingPrice: types.MustMoney("4.75"), LastBuyingPrice: types.MustMoney("3.00"), StockOnHand: 0},
		{ItemRef: "GLV-NIT-M", Name: "Nitrile gloves M (box of 100)", SellingPrice: types.MustMoney("95.00"), LastBuyingPrice: types.MustMoney("70.00"), StockOnHand: 18},
	}
}
