package cache

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

const DefaultTTL = 30 * time.Second

const inventorySuffix = ":inventory"

// InventoryCache holds per-store stock snapshots in front of the repository.
type InventoryCache struct {
	cache  *Cache[[]model.InventoryItem]
	logger logger.ZapLogger
}

func NewInventoryCache(repo inventory.Repository, ttl time.Duration, log logger.ZapLogger) *InventoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	fetch := func(ctx context.Context, key string) ([]model.InventoryItem, error) {
		storeID := strings.TrimSuffix(key, inventorySuffix)
		items, err := repo.FetchStoreInventory(ctx, storeID)
		if err != nil {
			return nil, err
		}
		log.Debug("Inventory cache refreshed", zap.String("store_id", storeID), zap.Int("items", len(items)))
		return items, nil
	}
	return &InventoryCache{cache: New(ttl, fetch), logger: log}
}

func inventoryKey(storeID string) string {
	return storeID + inventorySuffix
}

// SetClock replaces the time source. Tests only.
func (c *InventoryCache) SetClock(now func() time.Time) {
	c.cache.SetClock(now)
}

// GetStoreInventory returns a copy of the store's active items.
func (c *InventoryCache) GetStoreInventory(ctx context.Context, storeID string) ([]model.InventoryItem, error) {
	e, _, err := c.cache.Get(ctx, inventoryKey(storeID))
	if err != nil {
		return nil, err
	}
	return append([]model.InventoryItem(nil), e.Payload...), nil
}

// Snapshot is GetStoreInventory wrapped for id lookups.
func (c *InventoryCache) Snapshot(ctx context.Context, storeID string) (*inventory.Snapshot, error) {
	items, err := c.GetStoreInventory(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return inventory.NewSnapshot(items), nil
}

func (c *InventoryCache) InvalidateStore(storeID string) {
	c.cache.Invalidate(inventoryKey(storeID))
	c.logger.Debug("Inventory cache invalidated", zap.String("store_id", storeID))
}

// UpdateEntry patches one item of a cached snapshot after a write. The patch is
// applied only when the cached row is exactly one version behind the write;
// otherwise the store entry is dropped.
func (c *InventoryCache) UpdateEntry(storeID, itemID string, newQuantity float64, newVersion int64) bool {
	ok := c.cache.Update(inventoryKey(storeID), func(items []model.InventoryItem) ([]model.InventoryItem, bool) {
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			if items[i].Version != newVersion-1 {
				return nil, false
			}
			patched := append([]model.InventoryItem(nil), items...)
			patched[i].Quantity = newQuantity
			patched[i].Version = newVersion
			patched[i].UpdatedAt = time.Now()
			return patched, true
		}
		return nil, false
	})
	if !ok {
		c.InvalidateStore(storeID)
	}
	return ok
}
