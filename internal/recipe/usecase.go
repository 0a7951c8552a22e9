package recipe

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	// LoadProductRecipes assembles recipes for the given products with one batched
	// read per table. Products without any recipe are absent from the result.
	LoadProductRecipes(ctx context.Context, storeID string, productIDs []string) (map[string]*model.ProductRecipe, error)
	// LoadProductRecipeByName is the fallback for historical lines whose product id
	// no longer carries a recipe.
	LoadProductRecipeByName(ctx context.Context, storeID, name string) (*model.ProductRecipe, error)
}
