package model

import "time"

const SaleStatusCompleted = "completed"

type SaleRecord struct {
	ID            string     `db:"id" json:"id"`
	StoreID       string     `db:"store_id" json:"store_id"`
	ReceiptNumber string     `db:"receipt_number" json:"receipt_number"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	Lines         []SaleLine `db:"-" json:"lines"`
}

// SaleLine is one recorded line item of a sale.
type SaleLine struct {
	LineNo      int              `db:"line_no" json:"line_no"`
	ProductID   string           `db:"product_id" json:"product_id"`
	Name        string           `db:"name" json:"name"`
	VariationID string           `db:"variation_id" json:"variation_id"`
	Quantity    float64          `db:"quantity" json:"quantity"`
	Choices     []SelectedChoice `db:"-" json:"choices"`
}
