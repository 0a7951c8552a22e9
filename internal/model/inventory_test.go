package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveDeductions(t *testing.T) {
	sale := func(id string, line int, item string) StockMovement {
		return StockMovement{ID: id, MovementType: MovementTypeSale, ReferenceLine: line, InventoryStockID: item}
	}
	reversal := func(id string, line int, item string) StockMovement {
		return StockMovement{ID: id, MovementType: MovementTypeSaleReversal, ReferenceLine: line, InventoryStockID: item}
	}

	got := EffectiveDeductions([]StockMovement{
		sale("m1", 1, "cup"),
		sale("m2", 1, "milk"),
		reversal("m3", 1, "milk"),
		sale("m4", 2, "cup"),
		reversal("m5", 2, "cup"),
		sale("m6", 2, "cup"),
		{ID: "m7", MovementType: "adjustment", ReferenceLine: 3, InventoryStockID: "cup"},
	})

	assert.Len(t, got, 2)
	assert.Equal(t, "m1", got[MovementKey{Line: 1, ItemID: "cup"}].ID)
	assert.Equal(t, "m6", got[MovementKey{Line: 2, ItemID: "cup"}].ID)
	_, ok := got[MovementKey{Line: 1, ItemID: "milk"}]
	assert.False(t, ok)
}

func TestIsLowStock(t *testing.T) {
	assert.True(t, InventoryItem{Quantity: 2, MinimumThreshold: 2}.IsLowStock())
	assert.False(t, InventoryItem{Quantity: 3, MinimumThreshold: 2}.IsLowStock())
	assert.False(t, InventoryItem{Quantity: 0}.IsLowStock())
}
