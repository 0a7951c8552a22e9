package usecase

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	cache  *cache.InventoryCache
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, cache *cache.InventoryCache, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *inventoryUseCase) GetStoreInventory(ctx context.Context, storeID string) ([]model.InventoryItem, error) {
	return uc.cache.GetStoreInventory(ctx, storeID)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, storeID string) ([]model.InventoryItem, error) {
	snap, err := uc.cache.Snapshot(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return snap.LowStock(), nil
}

// ListSaleMovements returns the audit trail of a sale, reversals included.
func (uc *inventoryUseCase) ListSaleMovements(ctx context.Context, saleReference string) ([]model.StockMovement, error) {
	return uc.repo.FetchMovementsForSale(ctx, saleReference)
}

func (uc *inventoryUseCase) InvalidateStore(storeID string) {
	uc.logger.Info("Invalidating inventory cache on request", zap.String("store_id", storeID))
	uc.cache.InvalidateStore(storeID)
}
