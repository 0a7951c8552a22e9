package usecase

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
)

type recipeUseCase struct {
	repo   recipe.Repository
	logger logger.ZapLogger
}

func NewRecipeUseCase(repo recipe.Repository, log logger.ZapLogger) recipe.UseCase {
	return &recipeUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *recipeUseCase) LoadProductRecipes(ctx context.Context, storeID string, productIDs []string) (map[string]*model.ProductRecipe, error) {
	products, err := uc.repo.FetchProducts(ctx, storeID, dedup(productIDs))
	if err != nil {
		return nil, err
	}
	return uc.assemble(ctx, products)
}

func (uc *recipeUseCase) LoadProductRecipeByName(ctx context.Context, storeID, name string) (*model.ProductRecipe, error) {
	product, err := uc.repo.FetchProductByName(ctx, storeID, name)
	if err != nil || product == nil {
		return nil, err
	}
	recipes, err := uc.assemble(ctx, []model.Product{*product})
	if err != nil {
		return nil, err
	}
	return recipes[product.ID], nil
}

func (uc *recipeUseCase) assemble(ctx context.Context, products []model.Product) (map[string]*model.ProductRecipe, error) {
	var recipeIDs, templateIDs []string
	for _, p := range products {
		if p.RecipeID != nil {
			recipeIDs = append(recipeIDs, *p.RecipeID)
		}
		if p.TemplateID != nil {
			templateIDs = append(templateIDs, *p.TemplateID)
		}
	}

	recipeRows, err := uc.repo.FetchRecipeIngredients(ctx, dedup(recipeIDs)...)
	if err != nil {
		return nil, err
	}
	templateRows, err := uc.repo.FetchTemplateIngredients(ctx, dedup(templateIDs)...)
	if err != nil {
		return nil, err
	}

	byRecipe := groupByOwner(recipeRows)
	byTemplate := groupByOwner(templateRows)

	out := make(map[string]*model.ProductRecipe, len(products))
	for _, p := range products {
		var rows, tmpl []model.RecipeIngredientRequirement
		if p.RecipeID != nil {
			rows = byRecipe[*p.RecipeID]
		}
		if p.TemplateID != nil {
			tmpl = byTemplate[*p.TemplateID]
		}
		if len(rows) == 0 && len(tmpl) == 0 {
			uc.logger.Warn("Product has no recipe", zap.String("product_id", p.ID), zap.String("product", p.Name))
			continue
		}

		fixed, groups := recipe.SplitRows(rows)
		tmplFixed, tmplGroups := recipe.SplitRows(tmpl)
		// A store recipe overrides its template's fixed rows; template choice
		// groups fill in whatever the store recipe does not define itself.
		if len(fixed) == 0 {
			fixed = tmplFixed
		}
		groups = mergeGroups(groups, tmplGroups)

		out[p.ID] = &model.ProductRecipe{
			Product:      p,
			Ingredients:  fixed,
			ChoiceGroups: groups,
		}
	}
	return out, nil
}

func mergeGroups(own, inherited []model.ChoiceGroup) []model.ChoiceGroup {
	have := make(map[string]bool, len(own))
	for _, g := range own {
		have[g.Name] = true
	}
	for _, g := range inherited {
		if !have[g.Name] {
			own = append(own, g)
		}
	}
	return own
}

func groupByOwner(rows []model.RecipeIngredientRequirement) map[string][]model.RecipeIngredientRequirement {
	out := make(map[string][]model.RecipeIngredientRequirement)
	for _, row := range rows {
		out[row.RecipeID] = append(out[row.RecipeID], row)
	}
	return out
}

func dedup(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
