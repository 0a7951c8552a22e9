package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/sale"
)

type TimeoutRepository struct {
	next    sale.Repository
	timeout time.Duration
}

func WithTimeout(next sale.Repository, timeout time.Duration) *TimeoutRepository {
	return &TimeoutRepository{next: next, timeout: timeout}
}

func (r *TimeoutRepository) FetchCompletedSales(ctx context.Context, storeID string, from, to time.Time) ([]model.SaleRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	sales, err := r.next.FetchCompletedSales(ctx, storeID, from, to)
	return sales, deduction.WrapIO("fetch completed sales", err)
}
