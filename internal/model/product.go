package model

type Product struct {
	ID          string  `db:"id" json:"id"`
	StoreID     string  `db:"store_id" json:"store_id"`
	Name        string  `db:"product_name" json:"product_name"`
	RecipeID    *string `db:"recipe_id" json:"recipe_id"`
	TemplateID  *string `db:"template_id" json:"template_id"`
	IsAvailable bool    `db:"is_available" json:"is_available"`
}

type SelectionType string

const (
	SelectionRequiredOne SelectionType = "required_one"
	SelectionRequiredAll SelectionType = "required_all"
	SelectionOptional    SelectionType = "optional"
)

func (s SelectionType) IsRequired() bool {
	return s == SelectionRequiredOne || s == SelectionRequiredAll
}

// Groups whose rows are always deducted regardless of buyer selection.
const (
	GroupBase      = "base"
	GroupPackaging = "packaging"
)

type RecipeIngredientRequirement struct {
	ID               string        `db:"id" json:"id"`
	RecipeID         string        `db:"recipe_id" json:"recipe_id"`
	IngredientName   string        `db:"ingredient_name" json:"ingredient_name"`
	Quantity         float64       `db:"quantity" json:"quantity"` // per one unit of product
	Unit             string        `db:"unit" json:"unit"`
	GroupName        string        `db:"ingredient_group_name" json:"ingredient_group_name"`
	SelectionType    SelectionType `db:"group_selection_type" json:"group_selection_type"`
	InventoryStockID *string       `db:"inventory_stock_id" json:"inventory_stock_id"`
	Fractional       bool          `db:"supports_fractional" json:"supports_fractional"`
}

// IsChoice reports whether the row belongs to a buyer-facing choice group.
func (r RecipeIngredientRequirement) IsChoice() bool {
	return r.GroupName != "" && r.GroupName != GroupBase && r.GroupName != GroupPackaging && r.SelectionType != ""
}

type ChoiceGroup struct {
	Name          string                        `json:"name"`
	TemplateID    string                        `json:"template_id"`
	SelectionType SelectionType                 `json:"selection_type"`
	Options       []RecipeIngredientRequirement `json:"options"`
}

type SelectedChoice struct {
	GroupName  string `json:"group_name"`
	Ingredient string `json:"ingredient"`
}

// ProductRecipe is a sellable product with its recipe split into always-deducted
// ingredients and buyer choice groups.
type ProductRecipe struct {
	Product      Product
	Ingredients  []RecipeIngredientRequirement
	ChoiceGroups []ChoiceGroup
}
