package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/checkout"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/executor"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/resolver"
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
	"go.uber.org/multierr"
)

func strPtr(s string) *string { return &s }

var day = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	inv  *invrepo.MemoryRepository
	exec *executor.Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	inv := invrepo.NewMemoryRepository(
		model.InventoryItem{ID: "inv-croissant", StoreID: "s1", Name: "Croissant", Quantity: 10, MinimumThreshold: 8, IsActive: true, Version: 1},
		model.InventoryItem{ID: "inv-butter", StoreID: "s1", Name: "Butter", Quantity: 10, IsActive: true, Version: 1},
	)

	recipes := reciperepo.NewMemoryRepository()
	recipes.AddProduct(model.Product{ID: "p-croffle", StoreID: "s1", Name: "Classic Croffle", RecipeID: strPtr("r-croffle")})
	recipes.AddRecipe("r-croffle",
		model.RecipeIngredientRequirement{IngredientName: "Croissant", Quantity: 1},
		model.RecipeIngredientRequirement{IngredientName: "Butter", Quantity: 0.5, Fractional: true},
	)
	recipes.AddProduct(model.Product{ID: "p-ube", StoreID: "s1", Name: "Ube Croffle", RecipeID: strPtr("r-ube")})
	recipes.AddRecipe("r-ube", model.RecipeIngredientRequirement{IngredientName: "Ube Halaya", Quantity: 1})

	sales := salerepo.NewMemoryRepository(
		model.SaleRecord{ID: "t1", StoreID: "s1", ReceiptNumber: "R-001", Status: model.SaleStatusCompleted, CreatedAt: day.Add(9 * time.Hour),
			Lines: []model.SaleLine{{LineNo: 1, ProductID: "p-croffle", Name: "Classic Croffle", Quantity: 1}}},
		model.SaleRecord{ID: "t2", StoreID: "s1", ReceiptNumber: "R-002", Status: model.SaleStatusCompleted, CreatedAt: day.Add(10 * time.Hour),
			Lines: []model.SaleLine{{LineNo: 1, Name: "classic croffle", Quantity: 2}}},
		model.SaleRecord{ID: "t3", StoreID: "s1", ReceiptNumber: "R-003", Status: model.SaleStatusCompleted, CreatedAt: day.Add(11 * time.Hour),
			Lines: []model.SaleLine{{LineNo: 1, ProductID: "p-ube", Name: "Ube Croffle", Quantity: 1}}},
		model.SaleRecord{ID: "t4", StoreID: "s1", ReceiptNumber: "R-004", Status: "voided", CreatedAt: day.Add(12 * time.Hour),
			Lines: []model.SaleLine{{LineNo: 1, ProductID: "p-croffle", Quantity: 1}}},
		model.SaleRecord{ID: "t5", StoreID: "s1", ReceiptNumber: "R-005", Status: model.SaleStatusCompleted, CreatedAt: day.Add(36 * time.Hour),
			Lines: []model.SaleLine{{LineNo: 1, ProductID: "p-croffle", Quantity: 1}}},
	)

	log := logger.NewNop()
	c := cache.NewInventoryCache(inv, time.Minute, log)
	exec := executor.New(inv, c, nil, executor.Config{MaxRetries: 3}, log)
	deducter := checkout.NewService(recipeuc.NewRecipeUseCase(recipes, log), c, resolver.New(alias.Default()), exec, nil, 0, log)

	return &fixture{
		svc:  NewService(sales, inv, deducter, c, time.Millisecond, strPtr("recovery"), log),
		inv:  inv,
		exec: exec,
	}
}

func window() *dto.RecoveryRequest {
	return &dto.RecoveryRequest{StoreID: "s1", From: day, To: day.Add(24 * time.Hour)}
}

func (f *fixture) quantity(t *testing.T, id string) float64 {
	t.Helper()
	item, err := f.inv.GetItem(context.Background(), id)
	require.NoError(t, err)
	return item.Quantity
}

func TestRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// t1 was deducted at checkout time.
	_, err := f.exec.Execute(ctx, "s1", "t1", nil, []dto.DeductionPlan{{
		LineNo: 1, Deductions: []dto.Deduction{
			{InventoryItemID: "inv-croissant", Name: "Croissant", Quantity: 1},
			{InventoryItemID: "inv-butter", Name: "Butter", Quantity: 0.5},
		},
	}})
	require.NoError(t, err)

	summary, err := f.svc.Run(ctx, window())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 1, summary.RecoveredCount)
	assert.Equal(t, 1, summary.FailedCount)
	assert.Equal(t, 1, summary.SkippedCount)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "R-003")
	assert.Len(t, multierr.Errors(summary.Err), 1)

	statuses := map[string]string{}
	for _, s := range summary.Sales {
		statuses[s.SaleID] = s.Status
	}
	assert.Equal(t, map[string]string{"t1": dto.SaleSkipped, "t2": dto.SaleRecovered, "t3": dto.SaleFailed}, statuses)

	assert.Equal(t, float64(7), f.quantity(t, "inv-croissant"))
	assert.Equal(t, 8.5, f.quantity(t, "inv-butter"))

	require.Len(t, summary.LowStock, 1)
	assert.Equal(t, "Croissant", summary.LowStock[0].Name)

	for _, m := range f.inv.Movements() {
		if m.ReferenceID == "t2" {
			require.NotNil(t, m.CreatedBy)
			assert.Equal(t, "recovery", *m.CreatedBy)
		}
	}
}

func TestRun_SecondRunRecoversNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Run(ctx, window())
	require.NoError(t, err)
	assert.Equal(t, 2, first.RecoveredCount)
	movements := len(f.inv.Movements())

	second, err := f.svc.Run(ctx, window())
	require.NoError(t, err)
	assert.Equal(t, 0, second.RecoveredCount)
	assert.Equal(t, 2, second.SkippedCount)
	assert.Equal(t, movements, len(f.inv.Movements()))
}

func TestRun_DryRun(t *testing.T) {
	f := newFixture(t)

	req := window()
	req.DryRun = true
	summary, err := f.svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.PendingCount)
	assert.Equal(t, 0, summary.RecoveredCount)
	assert.Empty(t, f.inv.Movements())
	assert.Equal(t, float64(10), f.quantity(t, "inv-croissant"))
}

func TestRun_InvalidWindow(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Run(context.Background(), &dto.RecoveryRequest{StoreID: "s1", From: day, To: day})
	assert.ErrorIs(t, err, deduction.ErrInvalidRequest)
}

func TestRun_StopsOnContext(t *testing.T) {
	f := newFixture(t)
	f.svc.delay = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	summary, err := f.svc.Run(ctx, window())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Scanned)
	assert.Equal(t, 1, summary.RecoveredCount)
}
