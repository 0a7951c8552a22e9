package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// Repository is the store-scoped stock system of record.
type Repository interface {
	// FetchStoreInventory returns all active items of a store in store-defined order.
	FetchStoreInventory(ctx context.Context, storeID string) ([]model.InventoryItem, error)
	GetItem(ctx context.Context, itemID string) (*model.InventoryItem, error)

	// ApplyMovement writes newQuantity to the item only if its version still equals
	// expectedVersion, and records the movement in the same transaction. It returns
	// false when the version check fails and nothing was written.
	ApplyMovement(ctx context.Context, itemID string, expectedVersion int64, newQuantity float64, movement *model.StockMovement) (bool, error)

	FetchMovementsForSale(ctx context.Context, saleReference string) ([]model.StockMovement, error)
}
