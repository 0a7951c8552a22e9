package recipe

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type Repository interface {
	// FetchProducts returns the store's catalog entries for ids. Unknown ids are
	// omitted rather than reported.
	FetchProducts(ctx context.Context, storeID string, ids []string) ([]model.Product, error)
	// FetchProductByName matches case-insensitively. Returns nil when absent.
	FetchProductByName(ctx context.Context, storeID, name string) (*model.Product, error)
	FetchRecipeIngredients(ctx context.Context, recipeIDs ...string) ([]model.RecipeIngredientRequirement, error)
	// FetchTemplateIngredients returns template rows with RecipeID set to the template id.
	FetchTemplateIngredients(ctx context.Context, templateIDs ...string) ([]model.RecipeIngredientRequirement, error)
	FetchChoiceGroups(ctx context.Context, templateIDs ...string) ([]model.ChoiceGroup, error)
}
