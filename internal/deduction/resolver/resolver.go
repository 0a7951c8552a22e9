// Package resolver turns a sold product, its buyer choices and a sale quantity
// into concrete inventory requirements.
package resolver

import (
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe/alias"
	"github.com/fekuna/omnipos-inventory-service/pkg/quantity"
)

// ResolvedIngredient is the aggregated requirement on one inventory item.
// Unmapped entries have an empty InventoryItemID and are keyed by ingredient name.
type ResolvedIngredient struct {
	InventoryItemID string   `json:"inventory_item_id,omitempty"`
	Name            string   `json:"name"`
	Sources         []string `json:"sources"`
	PerUnit         float64  `json:"per_unit"`
	Required        float64  `json:"required"`
	Unit            string   `json:"unit"`
	Fractional      bool     `json:"fractional"`
	Mapped          bool     `json:"mapped"`
}

// Key is the aggregation identity of the requirement.
func (r ResolvedIngredient) Key() string {
	if r.Mapped {
		return r.InventoryItemID
	}
	return "unmapped:" + strings.ToLower(r.Name)
}

type Resolution struct {
	Ingredients []ResolvedIngredient `json:"ingredients"`
	Warnings    []string             `json:"warnings,omitempty"`
}

// Unmapped lists requirements with no inventory item behind them.
func (r *Resolution) Unmapped() []ResolvedIngredient {
	var out []ResolvedIngredient
	for _, ing := range r.Ingredients {
		if !ing.Mapped {
			out = append(out, ing)
		}
	}
	return out
}

// Err reports the first unmapped requirement as a ResolutionError. Deduction
// must not start while it is non-nil.
func (r *Resolution) Err(product string) error {
	for _, ing := range r.Ingredients {
		if !ing.Mapped {
			return &deduction.ResolutionError{Kind: deduction.UnmappedIngredient, Product: product, Ingredient: ing.Name}
		}
	}
	return nil
}

type Resolver struct {
	aliases *alias.Table
}

func New(aliases *alias.Table) *Resolver {
	return &Resolver{aliases: aliases}
}

// Resolve expands rec for saleQty units sold with the given choices, mapping every
// ingredient onto snap. It does not round: fractional quantities pass through.
func (r *Resolver) Resolve(rec *model.ProductRecipe, choices []model.SelectedChoice, saleQty float64, snap *inventory.Snapshot) (*Resolution, error) {
	if saleQty <= 0 {
		return nil, deduction.ErrInvalidQuantity
	}
	rows, warnings, err := r.selectRows(rec, choices)
	if err != nil {
		return nil, err
	}

	agg := newAggregator()
	for _, row := range rows {
		item, warning, ok := r.mapRow(row, snap)
		if warning != "" {
			warnings = append(warnings, warning)
		}
		agg.add(row, item, ok, saleQty)
	}

	res := &Resolution{Ingredients: agg.list(), Warnings: warnings}
	for _, ing := range res.Ingredients {
		if ing.Mapped && !ing.Fractional && !quantity.IsWhole(ing.Required) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %g %s is not a whole quantity", ing.Name, ing.Required, ing.Unit))
		}
	}
	return res, nil
}

// selectRows returns the fixed rows followed by the option rows the buyer chose,
// enforcing each group's selection rule.
func (r *Resolver) selectRows(rec *model.ProductRecipe, choices []model.SelectedChoice) ([]model.RecipeIngredientRequirement, []string, error) {
	product := rec.Product.Name
	rows := append([]model.RecipeIngredientRequirement(nil), rec.Ingredients...)
	var warnings []string

	byGroup := make(map[string][]model.SelectedChoice)
	for _, c := range choices {
		key := strings.ToLower(strings.TrimSpace(c.GroupName))
		byGroup[key] = append(byGroup[key], c)
	}

	known := make(map[string]bool, len(rec.ChoiceGroups))
	for _, group := range rec.ChoiceGroups {
		key := strings.ToLower(strings.TrimSpace(group.Name))
		known[key] = true
		picked := byGroup[key]

		switch {
		case len(picked) == 0 && group.SelectionType.IsRequired():
			return nil, nil, &deduction.ResolutionError{Kind: deduction.MissingChoice, Product: product, Group: group.Name}
		case len(picked) > 1 && group.SelectionType == model.SelectionRequiredOne:
			return nil, nil, &deduction.ResolutionError{Kind: deduction.TooManyChoices, Product: product, Group: group.Name}
		}

		for _, c := range picked {
			opt, warning, ok := r.pickOption(group, c.Ingredient)
			if !ok {
				return nil, nil, &deduction.ResolutionError{Kind: deduction.InvalidChoice, Product: product, Group: group.Name, Ingredient: c.Ingredient}
			}
			if warning != "" {
				warnings = append(warnings, warning)
			}
			rows = append(rows, opt)
		}
	}

	for _, c := range choices {
		if !known[strings.ToLower(strings.TrimSpace(c.GroupName))] {
			return nil, nil, &deduction.ResolutionError{Kind: deduction.InvalidChoice, Product: product, Group: c.GroupName, Ingredient: c.Ingredient}
		}
	}
	return rows, warnings, nil
}

// pickOption finds the group option the buyer's choice names, best tier first.
// Several options on the winning tier resolve to the first listed and yield a
// warning.
func (r *Resolver) pickOption(group model.ChoiceGroup, choice string) (model.RecipeIngredientRequirement, string, bool) {
	best := alias.NoMatch
	var tied []model.RecipeIngredientRequirement
	for _, opt := range group.Options {
		tier := alias.Classify(choice, opt.IngredientName, r.aliases)
		switch {
		case tier == alias.NoMatch || tier < best:
		case tier > best:
			best = tier
			tied = []model.RecipeIngredientRequirement{opt}
		default:
			tied = append(tied, opt)
		}
	}
	if len(tied) == 0 {
		return model.RecipeIngredientRequirement{}, "", false
	}

	var warning string
	if len(tied) > 1 {
		names := make([]string, len(tied))
		for i, opt := range tied {
			names[i] = opt.IngredientName
		}
		warning = fmt.Sprintf("%s / %s: %s match on %s; using %s", group.Name, choice, best, strings.Join(names, ", "), tied[0].IngredientName)
	}
	return tied[0], warning, true
}

// mapRow binds a recipe row to an inventory item: the row's direct link wins,
// then exact name, then substring, then alias set. Several candidates on the
// winning tier resolve to the first in store order and yield a warning.
func (r *Resolver) mapRow(row model.RecipeIngredientRequirement, snap *inventory.Snapshot) (model.InventoryItem, string, bool) {
	if row.InventoryStockID != nil {
		if item, ok := snap.Get(*row.InventoryStockID); ok {
			return item, "", true
		}
	}

	best := alias.NoMatch
	var candidates []model.InventoryItem
	for _, item := range snap.Items() {
		tier := alias.Classify(row.IngredientName, item.Name, r.aliases)
		switch {
		case tier == alias.NoMatch || tier < best:
		case tier > best:
			best = tier
			candidates = []model.InventoryItem{item}
		default:
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return model.InventoryItem{}, "", false
	}

	var warning string
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = c.Name
		}
		warning = fmt.Sprintf("%s: %s match on %s; using %s", row.IngredientName, best, strings.Join(names, ", "), candidates[0].Name)
	}
	return candidates[0], warning, true
}

type aggregator struct {
	order []string
	byKey map[string]*ResolvedIngredient
}

func newAggregator() *aggregator {
	return &aggregator{byKey: make(map[string]*ResolvedIngredient)}
}

func (a *aggregator) add(row model.RecipeIngredientRequirement, item model.InventoryItem, mapped bool, saleQty float64) {
	ing := ResolvedIngredient{
		Name:       row.IngredientName,
		PerUnit:    row.Quantity,
		Required:   quantity.Mul(row.Quantity, saleQty),
		Unit:       row.Unit,
		Fractional: row.Fractional,
		Mapped:     mapped,
		Sources:    []string{row.IngredientName},
	}
	if mapped {
		ing.InventoryItemID = item.ID
		ing.Name = item.Name
		if item.Unit != "" {
			ing.Unit = item.Unit
		}
	}
	a.merge(ing)
}

func (a *aggregator) merge(ing ResolvedIngredient) {
	key := ing.Key()
	cur, ok := a.byKey[key]
	if !ok {
		cp := ing
		cp.Sources = append([]string(nil), ing.Sources...)
		a.byKey[key] = &cp
		a.order = append(a.order, key)
		return
	}
	cur.PerUnit = quantity.Add(cur.PerUnit, ing.PerUnit)
	cur.Required = quantity.Add(cur.Required, ing.Required)
	cur.Fractional = cur.Fractional || ing.Fractional
	cur.Sources = append(cur.Sources, ing.Sources...)
}

func (a *aggregator) list() []ResolvedIngredient {
	out := make([]ResolvedIngredient, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, *a.byKey[key])
	}
	return out
}

// Merge combines resolutions, such as the components of a combo line, summing
// requirements per inventory item.
func Merge(parts ...*Resolution) *Resolution {
	agg := newAggregator()
	out := &Resolution{}
	for _, p := range parts {
		if p == nil {
			continue
		}
		for _, ing := range p.Ingredients {
			agg.merge(ing)
		}
		out.Warnings = append(out.Warnings, p.Warnings...)
	}
	out.Ingredients = agg.list()
	return out
}
