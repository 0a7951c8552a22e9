package repository

import (
	"context"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// MemoryRepository is the in-process catalog used by the memory storage driver
// and by tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	products  []model.Product
	recipes   map[string][]model.RecipeIngredientRequirement
	templates map[string][]model.RecipeIngredientRequirement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		recipes:   make(map[string][]model.RecipeIngredientRequirement),
		templates: make(map[string][]model.RecipeIngredientRequirement),
	}
}

func (r *MemoryRepository) AddProduct(p model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = append(r.products, p)
}

func (r *MemoryRepository) AddRecipe(recipeID string, rows ...model.RecipeIngredientRequirement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		row.RecipeID = recipeID
		r.recipes[recipeID] = append(r.recipes[recipeID], row)
	}
}

func (r *MemoryRepository) AddTemplate(templateID string, rows ...model.RecipeIngredientRequirement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		row.RecipeID = templateID
		r.templates[templateID] = append(r.templates[templateID], row)
	}
}

func (r *MemoryRepository) FetchProducts(ctx context.Context, storeID string, ids []string) ([]model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.Product{}
	for _, p := range r.products {
		if p.StoreID == storeID && want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *MemoryRepository) FetchProductByName(ctx context.Context, storeID, name string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *model.Product
	for i := range r.products {
		p := r.products[i]
		if p.StoreID != storeID || !strings.EqualFold(p.Name, name) {
			continue
		}
		if found == nil || (found.RecipeID == nil && p.RecipeID != nil) {
			found = &p
		}
	}
	return found, nil
}

func (r *MemoryRepository) FetchRecipeIngredients(ctx context.Context, recipeIDs ...string) ([]model.RecipeIngredientRequirement, error) {
	return r.rows(ctx, r.recipes, recipeIDs)
}

func (r *MemoryRepository) FetchTemplateIngredients(ctx context.Context, templateIDs ...string) ([]model.RecipeIngredientRequirement, error) {
	return r.rows(ctx, r.templates, templateIDs)
}

func (r *MemoryRepository) FetchChoiceGroups(ctx context.Context, templateIDs ...string) ([]model.ChoiceGroup, error) {
	rows, err := r.FetchTemplateIngredients(ctx, templateIDs...)
	if err != nil {
		return nil, err
	}
	return groupPerTemplate(rows), nil
}

func (r *MemoryRepository) rows(ctx context.Context, src map[string][]model.RecipeIngredientRequirement, ids []string) ([]model.RecipeIngredientRequirement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []model.RecipeIngredientRequirement{}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, src[id]...)
	}
	return out, nil
}
