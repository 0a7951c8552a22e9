package dto

// Deduction is one inventory row to decrement.
type Deduction struct {
	InventoryItemID string  `json:"inventory_item_id"`
	Name            string  `json:"name"`
	Quantity        float64 `json:"quantity"`
}

// DeductionPlan is the resolved deduction for one sale line.
type DeductionPlan struct {
	LineNo       int         `json:"line_no"`
	ProductID    string      `json:"product_id"`
	ProductName  string      `json:"product_name"`
	SaleQuantity float64     `json:"sale_quantity"`
	Deductions   []Deduction `json:"deductions"`
}

type ItemResult struct {
	LineNo           int     `json:"line_no"`
	InventoryItemID  string  `json:"inventory_item_id"`
	Name             string  `json:"name"`
	Quantity         float64 `json:"quantity"`
	PreviousQuantity float64 `json:"previous_quantity"`
	NewQuantity      float64 `json:"new_quantity"`
	MovementID       string  `json:"movement_id"`
	// AlreadyApplied marks a deduction found in the sale's existing movements.
	AlreadyApplied bool `json:"already_applied"`
	LowStock       bool `json:"low_stock"`
}

type ItemError struct {
	LineNo          int    `json:"line_no"`
	InventoryItemID string `json:"inventory_item_id"`
	Name            string `json:"name"`
	Err             error  `json:"-"`
	Message         string `json:"message"`
}

func (e ItemError) Error() string {
	return e.Message
}

func (e ItemError) Unwrap() error {
	return e.Err
}

type DeductionOutcome struct {
	StoreID       string       `json:"store_id"`
	SaleReference string       `json:"sale_reference"`
	Success       bool         `json:"success"`
	Deductions    []ItemResult `json:"deductions"`
	Errors        []ItemError  `json:"errors"`
	// Compensated lists the reversals written when the sale failed under the
	// compensating policy.
	Compensated []ItemResult `json:"compensated,omitempty"`
	Warnings    []string     `json:"warnings,omitempty"`
}

// Written counts deductions this execution actually wrote.
func (o *DeductionOutcome) Written() int {
	n := 0
	for _, d := range o.Deductions {
		if !d.AlreadyApplied {
			n++
		}
	}
	return n
}
