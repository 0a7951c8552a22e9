package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type saleRow struct {
	model.SaleRecord
	Items types.JSONText `db:"items"`
}

// lineJSON is the line shape stored in transactions.items.
type lineJSON struct {
	ProductID   string                 `json:"product_id"`
	Name        string                 `json:"name"`
	VariationID string                 `json:"variation_id"`
	Quantity    float64                `json:"quantity"`
	Choices     []model.SelectedChoice `json:"choices"`
}

func (r *PGRepository) FetchCompletedSales(ctx context.Context, storeID string, from, to time.Time) ([]model.SaleRecord, error) {
	query := `
        SELECT id, store_id, receipt_number, status, created_at, items
        FROM transactions
        WHERE store_id = $1 AND status = $2 AND created_at >= $3 AND created_at < $4
        ORDER BY created_at
    `
	var rows []saleRow
	if err := r.DB.SelectContext(ctx, &rows, query, storeID, model.SaleStatusCompleted, from, to); err != nil {
		return nil, err
	}

	sales := make([]model.SaleRecord, 0, len(rows))
	for _, row := range rows {
		lines, err := decodeLines(row.Items)
		if err != nil {
			return nil, fmt.Errorf("sale %s: %w", row.ID, err)
		}
		rec := row.SaleRecord
		rec.Lines = lines
		sales = append(sales, rec)
	}
	return sales, nil
}

func decodeLines(raw types.JSONText) ([]model.SaleLine, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var items []lineJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	lines := make([]model.SaleLine, len(items))
	for i, it := range items {
		lines[i] = model.SaleLine{
			LineNo:      i + 1,
			ProductID:   it.ProductID,
			Name:        it.Name,
			VariationID: it.VariationID,
			Quantity:    it.Quantity,
			Choices:     it.Choices,
		}
	}
	return lines, nil
}
