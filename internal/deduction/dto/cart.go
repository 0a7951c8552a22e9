package dto

import (
	"sort"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type CartItem struct {
	ProductID   string                 `json:"product_id"`
	VariationID string                 `json:"variation_id,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Quantity    float64                `json:"quantity"`
	Choices     []model.SelectedChoice `json:"choices,omitempty"`
}

// Key identifies the line by product, variation and customization, so two
// lines of the same product with different choices are reported apart.
func (c CartItem) Key() string {
	sig := make([]string, len(c.Choices))
	for i, ch := range c.Choices {
		sig[i] = strings.ToLower(strings.TrimSpace(ch.GroupName)) + "=" + strings.ToLower(strings.TrimSpace(ch.Ingredient))
	}
	sort.Strings(sig)
	return c.ProductID + "|" + c.VariationID + "|" + strings.Join(sig, ",")
}

type ValidateCartRequest struct {
	StoreID string     `json:"store_id"`
	Items   []CartItem `json:"items"`
}

// Issue codes; handlers localize them.
const (
	IssueInsufficientStock  = "insufficient_stock"
	IssueUnmappedIngredient = "unmapped_ingredient"
	IssueMissingChoice      = "missing_choice"
	IssueInvalidChoice      = "invalid_choice"
	IssueTooManyChoices     = "too_many_choices"
	IssueRecipeNotFound     = "recipe_not_found"
	IssueInvalidQuantity    = "invalid_quantity"
)

type Issue struct {
	Code       string  `json:"code"`
	LineKey    string  `json:"line_key,omitempty"`
	Product    string  `json:"product,omitempty"`
	Group      string  `json:"group,omitempty"`
	Ingredient string  `json:"ingredient,omitempty"`
	Item       string  `json:"item,omitempty"`
	Required   float64 `json:"required,omitempty"`
	Available  float64 `json:"available,omitempty"`
	Message    string  `json:"message"`
}

type LineValidation struct {
	Key      string        `json:"key"`
	Item     CartItem      `json:"item"`
	Product  string        `json:"product"`
	Check    *Availability `json:"check,omitempty"`
	Errors   []Issue       `json:"errors,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
}

type ValidationResult struct {
	StoreID  string                     `json:"store_id"`
	Valid    bool                       `json:"valid"`
	Errors   []Issue                    `json:"errors"`
	Warnings []string                   `json:"warnings"`
	Items    map[string]*LineValidation `json:"items"`
	// Aggregate holds per-item totals across all lines of the cart.
	Aggregate   []ItemStatus `json:"aggregate"`
	ValidatedAt time.Time    `json:"validated_at"`
}

type CheckoutRequest struct {
	StoreID       string           `json:"store_id"`
	SaleReference string           `json:"sale_reference"`
	UserID        string           `json:"user_id,omitempty"`
	Lines         []model.SaleLine `json:"lines"`
}
