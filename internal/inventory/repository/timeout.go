package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// TimeoutRepository bounds every call to the wrapped repository and reports
// failures as *deduction.IOError so callers can tell them from stock shortages.
type TimeoutRepository struct {
	next    inventory.Repository
	timeout time.Duration
}

func WithTimeout(next inventory.Repository, timeout time.Duration) *TimeoutRepository {
	return &TimeoutRepository{next: next, timeout: timeout}
}

func (r *TimeoutRepository) FetchStoreInventory(ctx context.Context, storeID string) ([]model.InventoryItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	items, err := r.next.FetchStoreInventory(ctx, storeID)
	return items, deduction.WrapIO("fetch store inventory", err)
}

func (r *TimeoutRepository) GetItem(ctx context.Context, itemID string) (*model.InventoryItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	item, err := r.next.GetItem(ctx, itemID)
	return item, deduction.WrapIO("get inventory item", err)
}

func (r *TimeoutRepository) ApplyMovement(ctx context.Context, itemID string, expectedVersion int64, newQuantity float64, m *model.StockMovement) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	ok, err := r.next.ApplyMovement(ctx, itemID, expectedVersion, newQuantity, m)
	return ok, deduction.WrapIO("write inventory quantity", err)
}

func (r *TimeoutRepository) FetchMovementsForSale(ctx context.Context, saleReference string) ([]model.StockMovement, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	items, err := r.next.FetchMovementsForSale(ctx, saleReference)
	return items, deduction.WrapIO("fetch sale movements", err)
}
