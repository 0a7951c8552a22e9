// Package availability compares resolved requirements with a stock snapshot.
package availability

import (
	"math"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/resolver"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/pkg/quantity"
)

// Check evaluates ingredients against snap without any further reads.
func Check(ingredients []resolver.ResolvedIngredient, snap *inventory.Snapshot) *dto.Availability {
	res := &dto.Availability{Available: true, PerItem: make([]dto.ItemStatus, 0, len(ingredients))}
	max := int64(math.MaxInt64)

	for _, ing := range ingredients {
		st := dto.ItemStatus{
			InventoryItemID: ing.InventoryItemID,
			Name:            ing.Name,
			Unit:            ing.Unit,
			Required:        ing.Required,
		}

		var onHand float64
		found := false
		if ing.Mapped {
			if it, ok := snap.Get(ing.InventoryItemID); ok {
				onHand, found = it.Quantity, true
			}
		}

		if !found {
			st.Unmapped = true
			st.Shortfall = ing.Required
			res.Unmapped = true
			res.Available = false
			res.PerItem = append(res.PerItem, st)
			continue
		}

		st.Available = onHand
		st.Sufficient = quantity.Cmp(onHand, ing.Required) >= 0
		if !st.Sufficient {
			st.Shortfall = quantity.Sub(ing.Required, onHand)
			res.Available = false
		}
		if ing.PerUnit > 0 {
			if n := quantity.FloorDiv(onHand, ing.PerUnit); n < max {
				max = n
			}
		}
		res.PerItem = append(res.PerItem, st)
	}

	switch {
	case res.Unmapped:
		res.MaxSaleableQuantity = 0
	case max == math.MaxInt64:
		res.Unbounded = true
		res.MaxSaleableQuantity = 0
	default:
		res.MaxSaleableQuantity = max
	}
	return res
}
