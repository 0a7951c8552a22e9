package model

import "time"

const (
	MovementTypeSale         = "sale"
	MovementTypeSaleReversal = "sale_reversal"

	ReferenceTypeTransaction = "transaction"
)

type InventoryItem struct {
	ID               string    `db:"id" json:"id"`
	StoreID          string    `db:"store_id" json:"store_id"`
	Name             string    `db:"item" json:"item"`
	Quantity         float64   `db:"stock_quantity" json:"stock_quantity"`
	Unit             string    `db:"unit" json:"unit"`
	MinimumThreshold float64   `db:"minimum_threshold" json:"minimum_threshold"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	Version          int64     `db:"version" json:"version"` // bumped on every quantity write
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (i InventoryItem) IsLowStock() bool {
	return i.MinimumThreshold > 0 && i.Quantity <= i.MinimumThreshold
}

type StockMovement struct {
	ID               string    `db:"id" json:"id"`
	StoreID          string    `db:"store_id" json:"store_id"`
	InventoryStockID string    `db:"inventory_stock_id" json:"inventory_stock_id"`
	MovementType     string    `db:"movement_type" json:"movement_type"`
	QuantityChange   float64   `db:"quantity_change" json:"quantity_change"`
	PreviousQuantity float64   `db:"previous_quantity" json:"previous_quantity"`
	NewQuantity      float64   `db:"new_quantity" json:"new_quantity"`
	ReferenceType    string    `db:"reference_type" json:"reference_type"`
	ReferenceID      string    `db:"reference_id" json:"reference_id"`
	ReferenceLine    int       `db:"reference_line" json:"reference_line"`
	Notes            string    `db:"notes" json:"notes"`
	CreatedBy        *string   `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// MovementKey identifies one ingredient deduction of one sale line.
type MovementKey struct {
	Line   int
	ItemID string
}

// EffectiveDeductions returns the sale deductions that have not been reversed.
// movements must be in creation order: a reversal cancels the deduction before
// it, and a later deduction of the same key counts again.
func EffectiveDeductions(movements []StockMovement) map[MovementKey]StockMovement {
	out := make(map[MovementKey]StockMovement)
	for _, m := range movements {
		key := MovementKey{Line: m.ReferenceLine, ItemID: m.InventoryStockID}
		switch m.MovementType {
		case MovementTypeSale:
			out[key] = m
		case MovementTypeSaleReversal:
			delete(out, key)
		}
	}
	return out
}
