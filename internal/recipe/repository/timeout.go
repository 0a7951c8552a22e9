package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe"
)

// TimeoutRepository bounds catalog reads the same way stock reads are bounded.
type TimeoutRepository struct {
	next    recipe.Repository
	timeout time.Duration
}

func WithTimeout(next recipe.Repository, timeout time.Duration) *TimeoutRepository {
	return &TimeoutRepository{next: next, timeout: timeout}
}

func (r *TimeoutRepository) FetchProducts(ctx context.Context, storeID string, ids []string) ([]model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	out, err := r.next.FetchProducts(ctx, storeID, ids)
	return out, deduction.WrapIO("fetch products", err)
}

func (r *TimeoutRepository) FetchProductByName(ctx context.Context, storeID, name string) (*model.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	out, err := r.next.FetchProductByName(ctx, storeID, name)
	return out, deduction.WrapIO("fetch product by name", err)
}

func (r *TimeoutRepository) FetchRecipeIngredients(ctx context.Context, recipeIDs ...string) ([]model.RecipeIngredientRequirement, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	out, err := r.next.FetchRecipeIngredients(ctx, recipeIDs...)
	return out, deduction.WrapIO("fetch recipe ingredients", err)
}

func (r *TimeoutRepository) FetchTemplateIngredients(ctx context.Context, templateIDs ...string) ([]model.RecipeIngredientRequirement, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	out, err := r.next.FetchTemplateIngredients(ctx, templateIDs...)
	return out, deduction.WrapIO("fetch template ingredients", err)
}

func (r *TimeoutRepository) FetchChoiceGroups(ctx context.Context, templateIDs ...string) ([]model.ChoiceGroup, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	out, err := r.next.FetchChoiceGroups(ctx, templateIDs...)
	return out, deduction.WrapIO("fetch choice groups", err)
}
