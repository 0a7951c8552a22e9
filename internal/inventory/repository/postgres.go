package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FetchStoreInventory(ctx context.Context, storeID string) ([]model.InventoryItem, error) {
	query := `
        SELECT id, store_id, item, stock_quantity, unit, minimum_threshold, is_active, version, updated_at
        FROM inventory_stock
        WHERE store_id = $1 AND is_active = true
        ORDER BY created_at, id
    `
	var items []model.InventoryItem
	if err := r.DB.SelectContext(ctx, &items, query, storeID); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PGRepository) GetItem(ctx context.Context, itemID string) (*model.InventoryItem, error) {
	var item model.InventoryItem
	query := `
        SELECT id, store_id, item, stock_quantity, unit, minimum_threshold, is_active, version, updated_at
        FROM inventory_stock WHERE id = $1
    `
	err := r.DB.GetContext(ctx, &item, query, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) ApplyMovement(ctx context.Context, itemID string, expectedVersion int64, newQuantity float64, m *model.StockMovement) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// The version predicate turns the read-modify-write into a compare-and-swap;
	// the quantity predicate keeps the row non-negative even if a caller slips.
	res, err := tx.ExecContext(ctx, `
        UPDATE inventory_stock
        SET stock_quantity = $1, version = version + 1, updated_at = NOW()
        WHERE id = $2 AND version = $3 AND $1 >= 0
    `, newQuantity, itemID, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.NamedExecContext(ctx, `
        INSERT INTO inventory_movements (
            id, store_id, inventory_stock_id, movement_type, quantity_change,
            previous_quantity, new_quantity, reference_type, reference_id,
            reference_line, notes, created_by, created_at
        )
        VALUES (
            :id, :store_id, :inventory_stock_id, :movement_type, :quantity_change,
            :previous_quantity, :new_quantity, :reference_type, :reference_id,
            :reference_line, :notes, :created_by, :created_at
        )
    `, m)
	if err != nil {
		return false, fmt.Errorf("failed to log movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PGRepository) FetchMovementsForSale(ctx context.Context, saleReference string) ([]model.StockMovement, error) {
	query := `
        SELECT id, store_id, inventory_stock_id, movement_type, quantity_change,
               previous_quantity, new_quantity, reference_type, reference_id,
               reference_line, notes, created_by, created_at
        FROM inventory_movements
        WHERE reference_type = $1 AND reference_id = $2
        ORDER BY created_at
    `
	var items []model.StockMovement
	err := r.DB.SelectContext(ctx, &items, query, model.ReferenceTypeTransaction, saleReference)
	return items, err
}
