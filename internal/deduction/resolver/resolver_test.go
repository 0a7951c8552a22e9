package resolver

import (
	"errors"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe/alias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func storeSnapshot() *inventory.Snapshot {
	return inventory.NewSnapshot([]model.InventoryItem{
		{ID: "inv-croissant", Name: "Mini Croissant", Quantity: 40, Unit: "pieces", IsActive: true},
		{ID: "inv-choc", Name: "Chocolate Sauce", Quantity: 2, Unit: "portion", IsActive: true},
		{ID: "inv-caramel", Name: "Caramel Syrup", Quantity: 10, Unit: "portion", IsActive: true},
		{ID: "inv-cup", Name: "Paper Cup", Quantity: 100, Unit: "pieces", IsActive: true},
		{ID: "inv-sprinkle", Name: "Rainbow Sprinkles", Quantity: 5, Unit: "portion", IsActive: true},
	})
}

func miniCroffle() *model.ProductRecipe {
	return &model.ProductRecipe{
		Product: model.Product{ID: "p1", Name: "Mini Croffle"},
		Ingredients: []model.RecipeIngredientRequirement{
			{IngredientName: "Mini Croissant", Quantity: 1, Unit: "pieces", GroupName: model.GroupBase, SelectionType: model.SelectionRequiredAll},
			{IngredientName: "Cup", Quantity: 1, Unit: "pieces", GroupName: model.GroupPackaging, SelectionType: model.SelectionRequiredAll, InventoryStockID: strPtr("inv-cup")},
		},
		ChoiceGroups: []model.ChoiceGroup{
			{Name: "sauce", SelectionType: model.SelectionRequiredOne, Options: []model.RecipeIngredientRequirement{
				{IngredientName: "Chocolate", Quantity: 1, Unit: "portion"},
				{IngredientName: "Caramel", Quantity: 1, Unit: "portion"},
			}},
			{Name: "topping", SelectionType: model.SelectionOptional, Options: []model.RecipeIngredientRequirement{
				{IngredientName: "Sprinkles", Quantity: 0.5, Unit: "portion", Fractional: true},
			}},
		},
	}
}

func byItem(res *Resolution) map[string]ResolvedIngredient {
	out := make(map[string]ResolvedIngredient)
	for _, ing := range res.Ingredients {
		out[ing.Key()] = ing
	}
	return out
}

func TestResolve_ChoiceMapsToInventory(t *testing.T) {
	r := New(alias.Default())

	res, err := r.Resolve(miniCroffle(), []model.SelectedChoice{{GroupName: "sauce", Ingredient: "Chocolate"}}, 3, storeSnapshot())
	require.NoError(t, err)
	require.NoError(t, res.Err("Mini Croffle"))

	items := byItem(res)
	require.Len(t, items, 3)
	assert.Equal(t, float64(3), items["inv-choc"].Required)
	assert.Equal(t, float64(1), items["inv-choc"].PerUnit)
	assert.Equal(t, "Chocolate Sauce", items["inv-choc"].Name)
	assert.Equal(t, float64(3), items["inv-croissant"].Required)
	assert.Equal(t, float64(3), items["inv-cup"].Required)
}

func TestResolve_Deterministic(t *testing.T) {
	r := New(alias.Default())
	choices := []model.SelectedChoice{
		{GroupName: "sauce", Ingredient: "Caramel"},
		{GroupName: "topping", Ingredient: "Sprinkles"},
	}

	first, err := r.Resolve(miniCroffle(), choices, 2, storeSnapshot())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := r.Resolve(miniCroffle(), choices, 2, storeSnapshot())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolve_SelectionRules(t *testing.T) {
	r := New(alias.Default())

	tests := []struct {
		name    string
		choices []model.SelectedChoice
		kind    deduction.ResolutionKind
	}{
		{"missing required", nil, deduction.MissingChoice},
		{"two for required_one", []model.SelectedChoice{
			{GroupName: "sauce", Ingredient: "Chocolate"},
			{GroupName: "sauce", Ingredient: "Caramel"},
		}, deduction.TooManyChoices},
		{"not an option", []model.SelectedChoice{{GroupName: "sauce", Ingredient: "Matcha"}}, deduction.InvalidChoice},
		{"unknown group", []model.SelectedChoice{
			{GroupName: "sauce", Ingredient: "Chocolate"},
			{GroupName: "drizzle", Ingredient: "Honey"},
		}, deduction.InvalidChoice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(miniCroffle(), tt.choices, 1, storeSnapshot())
			var resErr *deduction.ResolutionError
			require.True(t, errors.As(err, &resErr), "got %v", err)
			assert.Equal(t, tt.kind, resErr.Kind)
		})
	}
}

func TestResolve_GroupNamesAreCaseInsensitive(t *testing.T) {
	r := New(alias.Default())
	_, err := r.Resolve(miniCroffle(), []model.SelectedChoice{{GroupName: "Sauce", Ingredient: "chocolate"}}, 1, storeSnapshot())
	assert.NoError(t, err)
}

func TestResolve_RequiredAllDeductsEverySelection(t *testing.T) {
	rec := miniCroffle()
	rec.ChoiceGroups = append(rec.ChoiceGroups, model.ChoiceGroup{
		Name: "duo", SelectionType: model.SelectionRequiredAll,
		Options: []model.RecipeIngredientRequirement{
			{IngredientName: "Chocolate", Quantity: 1},
			{IngredientName: "Caramel", Quantity: 1},
		},
	})
	r := New(alias.Default())

	_, err := r.Resolve(rec, []model.SelectedChoice{{GroupName: "sauce", Ingredient: "Chocolate"}}, 1, storeSnapshot())
	var resErr *deduction.ResolutionError
	require.True(t, errors.As(err, &resErr))
	assert.Equal(t, deduction.MissingChoice, resErr.Kind)
	assert.Equal(t, "duo", resErr.Group)

	res, err := r.Resolve(rec, []model.SelectedChoice{
		{GroupName: "sauce", Ingredient: "Chocolate"},
		{GroupName: "duo", Ingredient: "Chocolate"},
		{GroupName: "duo", Ingredient: "Caramel"},
	}, 1, storeSnapshot())
	require.NoError(t, err)
	items := byItem(res)
	assert.Equal(t, float64(2), items["inv-choc"].Required)
	assert.Equal(t, []string{"Chocolate", "Chocolate"}, items["inv-choc"].Sources)
	assert.Equal(t, float64(1), items["inv-caramel"].Required)
}

func TestResolve_FractionalIsNotRounded(t *testing.T) {
	r := New(alias.Default())
	res, err := r.Resolve(miniCroffle(), []model.SelectedChoice{
		{GroupName: "sauce", Ingredient: "Chocolate"},
		{GroupName: "topping", Ingredient: "Sprinkles"},
	}, 3, storeSnapshot())
	require.NoError(t, err)

	sprinkles := byItem(res)["inv-sprinkle"]
	assert.Equal(t, 1.5, sprinkles.Required)
	assert.True(t, sprinkles.Fractional)
	assert.Empty(t, res.Warnings)
}

func TestResolve_NonFractionalRemainderWarns(t *testing.T) {
	rec := &model.ProductRecipe{
		Product:     model.Product{Name: "Half Croffle"},
		Ingredients: []model.RecipeIngredientRequirement{{IngredientName: "Mini Croissant", Quantity: 0.5}},
	}
	res, err := New(alias.Default()).Resolve(rec, nil, 3, storeSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 1.5, byItem(res)["inv-croissant"].Required)
	assert.Len(t, res.Warnings, 1)
}

func TestResolve_AggregatesSharedItem(t *testing.T) {
	rec := &model.ProductRecipe{
		Product: model.Product{Name: "Double Choco"},
		Ingredients: []model.RecipeIngredientRequirement{
			{IngredientName: "Chocolate Sauce", Quantity: 0.1, Fractional: true},
			{IngredientName: "Choco Drizzle", Quantity: 0.2, Fractional: true, InventoryStockID: strPtr("inv-choc")},
		},
	}
	res, err := New(alias.Default()).Resolve(rec, nil, 1, storeSnapshot())
	require.NoError(t, err)

	require.Len(t, res.Ingredients, 1)
	assert.Equal(t, 0.3, res.Ingredients[0].Required)
	assert.Equal(t, 0.3, res.Ingredients[0].PerUnit)
}

func TestResolve_Unmapped(t *testing.T) {
	rec := &model.ProductRecipe{
		Product:     model.Product{Name: "Matcha Croffle"},
		Ingredients: []model.RecipeIngredientRequirement{{IngredientName: "Matcha Powder", Quantity: 1}},
	}
	res, err := New(alias.Default()).Resolve(rec, nil, 1, storeSnapshot())
	require.NoError(t, err)

	require.Len(t, res.Unmapped(), 1)
	var resErr *deduction.ResolutionError
	require.True(t, errors.As(res.Err("Matcha Croffle"), &resErr))
	assert.Equal(t, deduction.UnmappedIngredient, resErr.Kind)
	assert.Equal(t, "Matcha Powder", resErr.Ingredient)
}

func TestResolve_MappingPrecedence(t *testing.T) {
	snap := inventory.NewSnapshot([]model.InventoryItem{
		{ID: "a", Name: "Dark Chocolate Sauce"},
		{ID: "b", Name: "Chocolate"},
		{ID: "c", Name: "Chocolate Crumble"},
	})
	r := New(alias.Default())

	exact := &model.ProductRecipe{Ingredients: []model.RecipeIngredientRequirement{{IngredientName: "chocolate", Quantity: 1}}}
	res, err := r.Resolve(exact, nil, 1, snap)
	require.NoError(t, err)
	assert.Equal(t, "b", res.Ingredients[0].InventoryItemID)
	assert.Empty(t, res.Warnings)

	ambiguous := &model.ProductRecipe{Ingredients: []model.RecipeIngredientRequirement{{IngredientName: "Choco", Quantity: 1}}}
	res, err = r.Resolve(ambiguous, nil, 1, snap)
	require.NoError(t, err)
	assert.Equal(t, "a", res.Ingredients[0].InventoryItemID)
	assert.Len(t, res.Warnings, 1)

	direct := &model.ProductRecipe{Ingredients: []model.RecipeIngredientRequirement{{IngredientName: "Chocolate", Quantity: 1, InventoryStockID: strPtr("c")}}}
	res, err = r.Resolve(direct, nil, 1, snap)
	require.NoError(t, err)
	assert.Equal(t, "c", res.Ingredients[0].InventoryItemID)
}

func TestResolve_InvalidQuantity(t *testing.T) {
	_, err := New(alias.Default()).Resolve(miniCroffle(), nil, 0, storeSnapshot())
	assert.ErrorIs(t, err, deduction.ErrInvalidQuantity)
}

func TestMerge(t *testing.T) {
	a := &Resolution{Ingredients: []ResolvedIngredient{
		{InventoryItemID: "x", Name: "Cup", PerUnit: 1, Required: 2, Mapped: true, Sources: []string{"Cup"}},
	}, Warnings: []string{"w1"}}
	b := &Resolution{Ingredients: []ResolvedIngredient{
		{InventoryItemID: "x", Name: "Cup", PerUnit: 1, Required: 2, Mapped: true, Sources: []string{"Cup"}},
		{InventoryItemID: "y", Name: "Lid", PerUnit: 1, Required: 2, Mapped: true, Sources: []string{"Lid"}},
	}}

	m := Merge(a, nil, b)
	require.Len(t, m.Ingredients, 2)
	assert.Equal(t, float64(4), m.Ingredients[0].Required)
	assert.Equal(t, []string{"w1"}, m.Warnings)
	assert.Len(t, a.Ingredients[0].Sources, 1)
}

func TestExpandCombo(t *testing.T) {
	ids, ok := ExpandCombo("combo-3f1c2a4e-8b9d-4c1a-9e2f-1a2b3c4d5e6f-7a8b9c0d-1e2f-4a3b-8c4d-5e6f7a8b9c0d")
	require.True(t, ok)
	assert.Equal(t, []string{"3f1c2a4e-8b9d-4c1a-9e2f-1a2b3c4d5e6f", "7a8b9c0d-1e2f-4a3b-8c4d-5e6f7a8b9c0d"}, ids)

	for _, id := range []string{"p1", "combo-", "combo-not-a-uuid", "combo-3f1c2a4e-8b9d-4c1a-9e2f-1a2b3c4d5e6f"} {
		ids, ok := ExpandCombo(id)
		assert.False(t, ok, id)
		assert.Equal(t, []string{id}, ids)
	}
}

func TestResolve_TiedChoiceOptionsWarn(t *testing.T) {
	rec := &model.ProductRecipe{
		Product: model.Product{Name: "Iced Latte"},
		ChoiceGroups: []model.ChoiceGroup{
			{Name: "flavor", SelectionType: model.SelectionRequiredOne, Options: []model.RecipeIngredientRequirement{
				{IngredientName: "Caramel Syrup", Quantity: 1, Unit: "portion"},
				{IngredientName: "Caramel Sauce", Quantity: 1, Unit: "portion"},
			}},
		},
	}
	res, err := New(alias.Default()).Resolve(rec, []model.SelectedChoice{{GroupName: "flavor", Ingredient: "Caramel"}}, 1, storeSnapshot())
	require.NoError(t, err)
	require.NoError(t, res.Err("Iced Latte"))

	assert.Equal(t, float64(1), byItem(res)["inv-caramel"].Required)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "Caramel Syrup, Caramel Sauce")
	assert.Contains(t, res.Warnings[0], "using Caramel Syrup")
}
