package inventory

import "github.com/fekuna/omnipos-inventory-service/internal/model"

// Snapshot is a read-only view of a store's stock at one point in time.
type Snapshot struct {
	items []model.InventoryItem
	byID  map[string]int
}

func NewSnapshot(items []model.InventoryItem) *Snapshot {
	s := &Snapshot{
		items: items,
		byID:  make(map[string]int, len(items)),
	}
	for i, item := range items {
		s.byID[item.ID] = i
	}
	return s
}

// Items returns the items in store-defined order. Callers must not mutate them.
func (s *Snapshot) Items() []model.InventoryItem {
	return s.items
}

func (s *Snapshot) Get(itemID string) (model.InventoryItem, bool) {
	i, ok := s.byID[itemID]
	if !ok {
		return model.InventoryItem{}, false
	}
	return s.items[i], true
}

func (s *Snapshot) Len() int {
	return len(s.items)
}

func (s *Snapshot) LowStock() []model.InventoryItem {
	var out []model.InventoryItem
	for _, item := range s.items {
		if item.IsLowStock() {
			out = append(out, item)
		}
	}
	return out
}
