package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/availability"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/resolver"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/quantity"
	"go.uber.org/zap"
)

// SnapshotSource is satisfied by the inventory read-cache.
type SnapshotSource interface {
	Snapshot(ctx context.Context, storeID string) (*inventory.Snapshot, error)
}

// Validator checks a whole cart against one stock snapshot and one batched
// recipe read.
type Validator struct {
	recipes  recipe.UseCase
	stock    SnapshotSource
	resolver *resolver.Resolver
	logger   logger.ZapLogger
	now      func() time.Time
}

func NewValidator(recipes recipe.UseCase, stock SnapshotSource, res *resolver.Resolver, log logger.ZapLogger) *Validator {
	return &Validator{
		recipes:  recipes,
		stock:    stock,
		resolver: res,
		logger:   log,
		now:      time.Now,
	}
}

func (v *Validator) Validate(ctx context.Context, storeID string, items []dto.CartItem) (*dto.ValidationResult, error) {
	lines := mergeLines(items)

	var productIDs []string
	for _, item := range lines {
		ids, _ := resolver.ExpandCombo(item.ProductID)
		productIDs = append(productIDs, ids...)
	}
	recipes, err := v.recipes.LoadProductRecipes(ctx, storeID, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}
	snap, err := v.stock.Snapshot(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("load inventory: %w", err)
	}

	result := &dto.ValidationResult{
		StoreID:     storeID,
		Errors:      []dto.Issue{},
		Warnings:    []string{},
		Items:       make(map[string]*dto.LineValidation, len(lines)),
		ValidatedAt: v.now(),
	}
	totals := newTotals()

	for _, item := range lines {
		lv, res := v.validateLine(ctx, storeID, item, recipes, snap)
		result.Items[lv.Key] = lv
		result.Errors = append(result.Errors, lv.Errors...)
		result.Warnings = append(result.Warnings, lv.Warnings...)
		if res != nil {
			totals.add(res.Ingredients)
		}
	}

	result.Aggregate = totals.check(snap)
	for _, st := range result.Aggregate {
		if st.Sufficient || st.Unmapped || totals.singleLine(st.InventoryItemID) {
			continue
		}
		// Each line fits on its own but together they oversell the item.
		result.Errors = append(result.Errors, dto.Issue{
			Code:      dto.IssueInsufficientStock,
			Item:      st.Name,
			Required:  st.Required,
			Available: st.Available,
			Message:   fmt.Sprintf("cart needs %g %s of %s, %g available", st.Required, st.Unit, st.Name, st.Available),
		})
	}

	result.Valid = len(result.Errors) == 0
	v.logger.Debug("Cart validated",
		zap.String("store_id", storeID),
		zap.Int("lines", len(lines)),
		zap.Bool("valid", result.Valid),
	)
	return result, nil
}

func (v *Validator) validateLine(ctx context.Context, storeID string, item dto.CartItem, recipes map[string]*model.ProductRecipe, snap *inventory.Snapshot) (*dto.LineValidation, *resolver.Resolution) {
	lv := &dto.LineValidation{Key: item.Key(), Item: item, Product: item.Name}
	fail := func(issue dto.Issue) (*dto.LineValidation, *resolver.Resolution) {
		issue.LineKey = lv.Key
		if issue.Product == "" {
			issue.Product = lv.Product
		}
		lv.Errors = append(lv.Errors, issue)
		return lv, nil
	}

	if item.Quantity <= 0 {
		return fail(dto.Issue{Code: dto.IssueInvalidQuantity, Message: deduction.ErrInvalidQuantity.Error()})
	}

	ids, combo := resolver.ExpandCombo(item.ProductID)
	parts := make([]*resolver.Resolution, 0, len(ids))
	for _, id := range ids {
		rec := recipes[id]
		if rec == nil && !combo && item.Name != "" {
			byName, err := v.recipes.LoadProductRecipeByName(ctx, storeID, item.Name)
			if err != nil {
				v.logger.Warn("Recipe lookup by name failed", zap.String("product", item.Name), zap.Error(err))
			}
			rec = byName
		}
		if rec == nil {
			return fail(issueFor(&deduction.ResolutionError{Kind: deduction.RecipeNotFound, Product: productLabel(item, id)}))
		}
		if lv.Product == "" {
			lv.Product = rec.Product.Name
		}

		choices := item.Choices
		if combo {
			choices = resolver.ChoicesFor(rec, item.Choices)
		}
		res, err := v.resolver.Resolve(rec, choices, item.Quantity, snap)
		if err != nil {
			return fail(issueFor(err))
		}
		parts = append(parts, res)
	}

	res := resolver.Merge(parts...)
	lv.Warnings = res.Warnings
	lv.Check = availability.Check(res.Ingredients, snap)
	for _, st := range lv.Check.Shortages() {
		if st.Unmapped {
			fail(dto.Issue{
				Code:       dto.IssueUnmappedIngredient,
				Ingredient: st.Name,
				Message:    fmt.Sprintf("ingredient %q has no inventory item", st.Name),
			})
			continue
		}
		fail(dto.Issue{
			Code:      dto.IssueInsufficientStock,
			Item:      st.Name,
			Required:  st.Required,
			Available: st.Available,
			Message:   fmt.Sprintf("needs %g %s of %s, %g available", st.Required, st.Unit, st.Name, st.Available),
		})
	}
	return lv, res
}

func issueFor(err error) dto.Issue {
	var resErr *deduction.ResolutionError
	if errors.As(err, &resErr) {
		return dto.Issue{
			Code:       string(resErr.Kind),
			Product:    resErr.Product,
			Group:      resErr.Group,
			Ingredient: resErr.Ingredient,
			Message:    resErr.Error(),
		}
	}
	if errors.Is(err, deduction.ErrInvalidQuantity) {
		return dto.Issue{Code: dto.IssueInvalidQuantity, Message: err.Error()}
	}
	return dto.Issue{Code: dto.IssueRecipeNotFound, Message: err.Error()}
}

func productLabel(item dto.CartItem, id string) string {
	if item.Name != "" {
		return item.Name
	}
	return id
}

// mergeLines folds lines with the same key into one, summing quantities.
func mergeLines(items []dto.CartItem) []dto.CartItem {
	index := make(map[string]int, len(items))
	var out []dto.CartItem
	for _, item := range items {
		key := item.Key()
		if i, ok := index[key]; ok {
			out[i].Quantity = quantity.Add(out[i].Quantity, item.Quantity)
			continue
		}
		index[key] = len(out)
		out = append(out, item)
	}
	return out
}

// totals sums requirements per inventory item across cart lines.
type totals struct {
	order []string
	byID  map[string]*dto.ItemStatus
	lines map[string]int
}

func newTotals() *totals {
	return &totals{byID: make(map[string]*dto.ItemStatus), lines: make(map[string]int)}
}

func (t *totals) add(ingredients []resolver.ResolvedIngredient) {
	for _, ing := range ingredients {
		if !ing.Mapped {
			continue
		}
		t.lines[ing.InventoryItemID]++
		st, ok := t.byID[ing.InventoryItemID]
		if !ok {
			st = &dto.ItemStatus{InventoryItemID: ing.InventoryItemID, Name: ing.Name, Unit: ing.Unit}
			t.byID[ing.InventoryItemID] = st
			t.order = append(t.order, ing.InventoryItemID)
		}
		st.Required = quantity.Add(st.Required, ing.Required)
	}
}

func (t *totals) singleLine(itemID string) bool {
	return t.lines[itemID] <= 1
}

func (t *totals) check(snap *inventory.Snapshot) []dto.ItemStatus {
	out := make([]dto.ItemStatus, 0, len(t.order))
	for _, id := range t.order {
		st := *t.byID[id]
		item, ok := snap.Get(id)
		if !ok {
			st.Unmapped = true
			st.Shortfall = st.Required
			out = append(out, st)
			continue
		}
		st.Available = item.Quantity
		st.Sufficient = quantity.Cmp(item.Quantity, st.Required) >= 0
		if !st.Sufficient {
			st.Shortfall = quantity.Sub(st.Required, item.Quantity)
		}
		out = append(out, st)
	}
	return out
}
