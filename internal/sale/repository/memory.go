package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	sales []model.SaleRecord
}

func NewMemoryRepository(sales ...model.SaleRecord) *MemoryRepository {
	return &MemoryRepository{sales: sales}
}

func (r *MemoryRepository) Add(s model.SaleRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sales = append(r.sales, s)
}

func (r *MemoryRepository) FetchCompletedSales(ctx context.Context, storeID string, from, to time.Time) ([]model.SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.SaleRecord
	for _, s := range r.sales {
		if s.StoreID != storeID || s.Status != model.SaleStatusCompleted {
			continue
		}
		if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
