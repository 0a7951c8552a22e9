package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/checkout"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/executor"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/recovery"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/resolver"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/validation"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/cache"
	invrepo "github.com/fekuna/omnipos-inventory-service/internal/inventory/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe/alias"
	reciperepo "github.com/fekuna/omnipos-inventory-service/internal/recipe/repository"
	recipeuc "github.com/fekuna/omnipos-inventory-service/internal/recipe/usecase"
	salerepo "github.com/fekuna/omnipos-inventory-service/internal/sale/repository"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUseCase(t *testing.T, cfg executor.Config) (deduction.UseCase, *invrepo.MemoryRepository, *salerepo.MemoryRepository) {
	t.Helper()
	inv := invrepo.NewMemoryRepository(
		model.InventoryItem{ID: "inv-cup", StoreID: "s1", Name: "Regular Cup", Quantity: 5, IsActive: true, Version: 1},
		model.InventoryItem{ID: "inv-beans", StoreID: "s1", Name: "Espresso Beans", Quantity: 200, Unit: "g", IsActive: true, Version: 1},
	)
	recipes := reciperepo.NewMemoryRepository()
	recipes.AddProduct(model.Product{ID: "p-americano", StoreID: "s1", Name: "Americano", RecipeID: strPtr("r-americano")})
	recipes.AddRecipe("r-americano",
		model.RecipeIngredientRequirement{IngredientName: "Regular Cup", Quantity: 1},
		model.RecipeIngredientRequirement{IngredientName: "Espresso Beans", Quantity: 18, Unit: "g", Fractional: true},
	)
	sales := salerepo.NewMemoryRepository()

	log := logger.NewNop()
	c := cache.NewInventoryCache(inv, time.Minute, log)
	res := resolver.New(alias.Default())
	rec := recipeuc.NewRecipeUseCase(recipes, log)
	exec := executor.New(inv, c, nil, cfg, log)
	svc := checkout.NewService(rec, c, res, exec, nil, 0, log)
	coord := validation.NewCoordinator(validation.NewValidator(rec, c, res, log).Validate, 10*time.Millisecond, log)
	t.Cleanup(coord.Close)

	return NewDeductionUseCase(coord, svc, recovery.NewService(sales, inv, svc, c, 0, nil, log), log), inv, sales
}

func TestCheckoutDeduct_RecordsUser(t *testing.T) {
	uc, inv, _ := newUseCase(t, executor.Config{})

	out, err := uc.CheckoutDeduct(context.Background(), &dto.CheckoutRequest{
		StoreID:       "s1",
		SaleReference: "tx-1",
		UserID:        "cashier-7",
		Lines:         []model.SaleLine{{ProductID: "p-americano", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, 2, out.Written())

	movements := inv.Movements()
	require.Len(t, movements, 2)
	for _, m := range movements {
		require.NotNil(t, m.CreatedBy)
		assert.Equal(t, "cashier-7", *m.CreatedBy)
	}
}

func TestCheckoutDeduct_CompensatesPartialSale(t *testing.T) {
	uc, inv, _ := newUseCase(t, executor.Config{Compensate: true})
	ctx := context.Background()

	out, err := uc.CheckoutDeduct(ctx, &dto.CheckoutRequest{
		StoreID:       "s1",
		SaleReference: "tx-2",
		Lines:         []model.SaleLine{{ProductID: "p-americano", Quantity: 6}},
	})
	require.NoError(t, err)
	assert.False(t, out.Success)
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "inv-cup", out.Errors[0].InventoryItemID)
	require.Len(t, out.Compensated, 1)
	assert.Equal(t, "inv-beans", out.Compensated[0].InventoryItemID)

	beans, err := inv.GetItem(ctx, "inv-beans")
	require.NoError(t, err)
	assert.Equal(t, float64(200), beans.Quantity)
	cups, err := inv.GetItem(ctx, "inv-cup")
	require.NoError(t, err)
	assert.Equal(t, float64(5), cups.Quantity)
}

func TestCheckoutDeduct_RejectsMalformed(t *testing.T) {
	uc, _, _ := newUseCase(t, executor.Config{})
	ctx := context.Background()

	_, err := uc.CheckoutDeduct(ctx, &dto.CheckoutRequest{SaleReference: "tx-1"})
	assert.ErrorIs(t, err, deduction.ErrInvalidRequest)

	_, err = uc.CheckoutDeduct(ctx, &dto.CheckoutRequest{StoreID: "s1", SaleReference: " "})
	assert.ErrorIs(t, err, deduction.ErrInvalidRequest)

	_, err = uc.ValidateCart(ctx, &dto.ValidateCartRequest{})
	assert.ErrorIs(t, err, deduction.ErrInvalidRequest)
}

func TestValidateCart(t *testing.T) {
	uc, _, _ := newUseCase(t, executor.Config{})
	ctx := context.Background()

	res, err := uc.ValidateCart(ctx, &dto.ValidateCartRequest{
		StoreID: "s1",
		Items:   []dto.CartItem{{ProductID: "p-americano", Quantity: 5}},
	})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = uc.ValidateCartImmediate(ctx, &dto.ValidateCartRequest{
		StoreID: "s1",
		Items:   []dto.CartItem{{ProductID: "p-americano", Quantity: 6}},
	})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, dto.IssueInsufficientStock, res.Errors[0].Code)
}

func TestRunRecovery(t *testing.T) {
	uc, inv, sales := newUseCase(t, executor.Config{})
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sales.Add(model.SaleRecord{
		ID: "tx-9", StoreID: "s1", ReceiptNumber: "R-9", Status: model.SaleStatusCompleted, CreatedAt: day.Add(time.Hour),
		Lines: []model.SaleLine{{LineNo: 1, ProductID: "p-americano", Quantity: 1}},
	})

	summary, err := uc.RunRecovery(context.Background(), &dto.RecoveryRequest{StoreID: "s1", From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RecoveredCount)

	item, err := inv.GetItem(context.Background(), "inv-cup")
	require.NoError(t, err)
	assert.Equal(t, float64(4), item.Quantity)
}
