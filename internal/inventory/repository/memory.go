package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// MemoryRepository keeps stock rows and movements in process. It backs the
// "memory" storage driver and the tests.
type MemoryRepository struct {
	mu        sync.Mutex
	items     []model.InventoryItem
	movements []model.StockMovement
}

func NewMemoryRepository(items ...model.InventoryItem) *MemoryRepository {
	r := &MemoryRepository{}
	for _, item := range items {
		r.Put(item)
	}
	return r
}

// Put inserts or replaces a row. Manual stock adjustments go through here.
func (r *MemoryRepository) Put(item model.InventoryItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = time.Now()
	}
	for i := range r.items {
		if r.items[i].ID == item.ID {
			r.items[i] = item
			return
		}
	}
	r.items = append(r.items, item)
}

func (r *MemoryRepository) FetchStoreInventory(ctx context.Context, storeID string) ([]model.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.InventoryItem
	for _, item := range r.items {
		if item.StoreID == storeID && item.IsActive {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *MemoryRepository) GetItem(ctx context.Context, itemID string) (*model.InventoryItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items {
		if item.ID == itemID {
			cp := item
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) ApplyMovement(ctx context.Context, itemID string, expectedVersion int64, newQuantity float64, m *model.StockMovement) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID != itemID {
			continue
		}
		if r.items[i].Version != expectedVersion || newQuantity < 0 {
			return false, nil
		}
		r.items[i].Quantity = newQuantity
		r.items[i].Version++
		r.items[i].UpdatedAt = time.Now()
		r.movements = append(r.movements, *m)
		return true, nil
	}
	return false, nil
}

func (r *MemoryRepository) FetchMovementsForSale(ctx context.Context, saleReference string) ([]model.StockMovement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ReferenceType == model.ReferenceTypeTransaction && m.ReferenceID == saleReference {
			out = append(out, m)
		}
	}
	return out, nil
}

// Movements returns every recorded movement in insertion order.
func (r *MemoryRepository) Movements() []model.StockMovement {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.StockMovement(nil), r.movements...)
}
