package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const productColumns = `
    pc.id, pc.store_id, pc.product_name, pc.recipe_id, r.template_id, pc.is_available
`

func (r *PGRepository) FetchProducts(ctx context.Context, storeID string, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT `+productColumns+`
        FROM product_catalog pc
        LEFT JOIN recipes r ON r.id = pc.recipe_id
        WHERE pc.store_id = ? AND pc.id IN (?)
    `, storeID, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var products []model.Product
	err = r.DB.SelectContext(ctx, &products, query, args...)
	return products, err
}

func (r *PGRepository) FetchProductByName(ctx context.Context, storeID, name string) (*model.Product, error) {
	var product model.Product
	query := `
        SELECT ` + productColumns + `
        FROM product_catalog pc
        LEFT JOIN recipes r ON r.id = pc.recipe_id
        WHERE pc.store_id = $1 AND LOWER(pc.product_name) = LOWER($2)
        ORDER BY pc.recipe_id IS NULL, pc.created_at
        LIMIT 1
    `
	err := r.DB.GetContext(ctx, &product, query, storeID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FetchRecipeIngredients(ctx context.Context, recipeIDs ...string) ([]model.RecipeIngredientRequirement, error) {
	if len(recipeIDs) == 0 {
		return []model.RecipeIngredientRequirement{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT ri.id, ri.recipe_id, COALESCE(ri.ingredient_name, inv.item) AS ingredient_name,
               ri.quantity, ri.unit,
               COALESCE(ri.ingredient_group_name, '') AS ingredient_group_name,
               COALESCE(ri.group_selection_type, '') AS group_selection_type,
               ri.inventory_stock_id,
               COALESCE(inv.fractional_support, false) AS supports_fractional
        FROM recipe_ingredients ri
        LEFT JOIN inventory_stock inv ON inv.id = ri.inventory_stock_id
        WHERE ri.recipe_id IN (?)
        ORDER BY ri.recipe_id, ri.display_order, ri.created_at
    `, recipeIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var rows []model.RecipeIngredientRequirement
	err = r.DB.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (r *PGRepository) FetchTemplateIngredients(ctx context.Context, templateIDs ...string) ([]model.RecipeIngredientRequirement, error) {
	if len(templateIDs) == 0 {
		return []model.RecipeIngredientRequirement{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT id, recipe_template_id AS recipe_id, ingredient_name, quantity, unit,
               COALESCE(ingredient_group_name, '') AS ingredient_group_name,
               COALESCE(group_selection_type::text, '') AS group_selection_type,
               inventory_stock_id,
               false AS supports_fractional
        FROM recipe_template_ingredients
        WHERE recipe_template_id IN (?)
        ORDER BY recipe_template_id, display_order, created_at
    `, templateIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var rows []model.RecipeIngredientRequirement
	err = r.DB.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (r *PGRepository) FetchChoiceGroups(ctx context.Context, templateIDs ...string) ([]model.ChoiceGroup, error) {
	rows, err := r.FetchTemplateIngredients(ctx, templateIDs...)
	if err != nil {
		return nil, err
	}
	return groupPerTemplate(rows), nil
}

// groupPerTemplate groups rows template by template so that equally named
// groups of different templates stay apart.
func groupPerTemplate(rows []model.RecipeIngredientRequirement) []model.ChoiceGroup {
	var order []string
	byTemplate := make(map[string][]model.RecipeIngredientRequirement)
	for _, row := range rows {
		if _, ok := byTemplate[row.RecipeID]; !ok {
			order = append(order, row.RecipeID)
		}
		byTemplate[row.RecipeID] = append(byTemplate[row.RecipeID], row)
	}
	var groups []model.ChoiceGroup
	for _, id := range order {
		groups = append(groups, recipe.BuildChoiceGroups(byTemplate[id])...)
	}
	return groups
}
