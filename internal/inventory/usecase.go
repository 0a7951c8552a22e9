package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	GetStoreInventory(ctx context.Context, storeID string) ([]model.InventoryItem, error)
	ListLowStock(ctx context.Context, storeID string) ([]model.InventoryItem, error)
	ListSaleMovements(ctx context.Context, saleReference string) ([]model.StockMovement, error)
	InvalidateStore(storeID string)
}
