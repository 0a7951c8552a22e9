package sale

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type Repository interface {
	// FetchCompletedSales returns completed sales of a store created in [from, to),
	// oldest first, with their recorded lines.
	FetchCompletedSales(ctx context.Context, storeID string, from, to time.Time) ([]model.SaleRecord, error)
}
