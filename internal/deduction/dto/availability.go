package dto

type ItemStatus struct {
	InventoryItemID string  `json:"inventory_item_id,omitempty"`
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	Required        float64 `json:"required"`
	Available       float64 `json:"available"`
	Sufficient      bool    `json:"sufficient"`
	Unmapped        bool    `json:"unmapped"`
	Shortfall       float64 `json:"shortfall"`
}

type Availability struct {
	Available bool         `json:"available"`
	PerItem   []ItemStatus `json:"per_item"`
	// MaxSaleableQuantity is zero whenever an ingredient is unmapped.
	MaxSaleableQuantity int64 `json:"max_saleable_quantity"`
	// Unbounded is set when no ingredient limits the quantity (empty recipe).
	Unbounded bool `json:"unbounded"`
	Unmapped  bool `json:"unmapped"`
}

// Shortages returns the statuses that block the sale.
func (a *Availability) Shortages() []ItemStatus {
	var out []ItemStatus
	for _, st := range a.PerItem {
		if st.Unmapped || !st.Sufficient {
			out = append(out, st)
		}
	}
	return out
}
