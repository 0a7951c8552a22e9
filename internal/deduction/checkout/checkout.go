// Package checkout turns a completed sale into stock deductions.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/executor"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/resolver"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/recipe"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultLockTTL = 30 * time.Second

// SaleGuard serializes deductions of one sale across processes. It is
// satisfied by cache.RedisClient.
type SaleGuard interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type SnapshotSource interface {
	Snapshot(ctx context.Context, storeID string) (*inventory.Snapshot, error)
}

type Service struct {
	recipes  recipe.UseCase
	stock    SnapshotSource
	resolver *resolver.Resolver
	executor *executor.Executor
	guard    SaleGuard
	lockTTL  time.Duration
	logger   logger.ZapLogger
}

// NewService builds the pipeline. guard may be nil for a single process.
func NewService(recipes recipe.UseCase, stock SnapshotSource, res *resolver.Resolver, exec *executor.Executor, guard SaleGuard, lockTTL time.Duration, log logger.ZapLogger) *Service {
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &Service{
		recipes:  recipes,
		stock:    stock,
		resolver: res,
		executor: exec,
		guard:    guard,
		lockTTL:  lockTTL,
		logger:   log,
	}
}

func lockKey(saleReference string) string {
	return "deduction:sale:" + saleReference
}

// DeductSale resolves every line and, only if all of them resolve, executes the
// deductions. Resolution failures return before anything is written.
func (s *Service) DeductSale(ctx context.Context, storeID, saleReference string, createdBy *string, lines []model.SaleLine) (*dto.DeductionOutcome, error) {
	if s.guard != nil {
		token := uuid.New().String()
		ok, err := s.guard.AcquireLock(ctx, lockKey(saleReference), token, s.lockTTL)
		if err != nil {
			return nil, deduction.WrapIO("acquire sale lock", err)
		}
		if !ok {
			return nil, deduction.ErrSaleInProgress
		}
		defer func() {
			// The caller's ctx may already be done; the lock must still go.
			if err := s.guard.ReleaseLock(context.WithoutCancel(ctx), lockKey(saleReference), token); err != nil {
				s.logger.Warn("Failed to release sale lock", zap.String("sale_reference", saleReference), zap.Error(err))
			}
		}()
	}

	plans, warnings, err := s.Plan(ctx, storeID, lines)
	if err != nil {
		return nil, err
	}

	out, err := s.executor.Execute(ctx, storeID, saleReference, createdBy, plans)
	if err != nil {
		return nil, err
	}
	out.Warnings = warnings
	return out, nil
}

// Plan resolves lines into per-line deduction plans against the store's
// current item catalog.
func (s *Service) Plan(ctx context.Context, storeID string, lines []model.SaleLine) ([]dto.DeductionPlan, []string, error) {
	var productIDs []string
	for _, line := range lines {
		ids, _ := resolver.ExpandCombo(line.ProductID)
		productIDs = append(productIDs, ids...)
	}
	recipes, err := s.recipes.LoadProductRecipes(ctx, storeID, productIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("load recipes: %w", err)
	}
	snap, err := s.stock.Snapshot(ctx, storeID)
	if err != nil {
		return nil, nil, fmt.Errorf("load inventory: %w", err)
	}

	plans := make([]dto.DeductionPlan, 0, len(lines))
	var warnings []string
	for i, line := range lines {
		if line.LineNo == 0 {
			line.LineNo = i + 1
		}
		plan, lineWarnings, err := s.planLine(ctx, storeID, line, recipes, snap)
		if err != nil {
			return nil, nil, err
		}
		plans = append(plans, plan)
		warnings = append(warnings, lineWarnings...)
	}
	return plans, warnings, nil
}

func (s *Service) planLine(ctx context.Context, storeID string, line model.SaleLine, recipes map[string]*model.ProductRecipe, snap *inventory.Snapshot) (dto.DeductionPlan, []string, error) {
	label := line.Name
	if label == "" {
		label = line.ProductID
	}
	if line.Quantity <= 0 {
		return dto.DeductionPlan{}, nil, fmt.Errorf("line %d (%s): %w", line.LineNo, label, deduction.ErrInvalidQuantity)
	}

	ids, combo := resolver.ExpandCombo(line.ProductID)
	parts := make([]*resolver.Resolution, 0, len(ids))
	for _, id := range ids {
		rec := recipes[id]
		if rec == nil && !combo && line.Name != "" {
			byName, err := s.recipes.LoadProductRecipeByName(ctx, storeID, line.Name)
			if err != nil {
				return dto.DeductionPlan{}, nil, err
			}
			rec = byName
		}
		if rec == nil {
			return dto.DeductionPlan{}, nil, &deduction.ResolutionError{Kind: deduction.RecipeNotFound, Product: label}
		}
		if line.Name == "" {
			label = rec.Product.Name
		}

		choices := line.Choices
		if combo {
			choices = resolver.ChoicesFor(rec, line.Choices)
		}
		res, err := s.resolver.Resolve(rec, choices, line.Quantity, snap)
		if err != nil {
			return dto.DeductionPlan{}, nil, err
		}
		parts = append(parts, res)
	}

	merged := resolver.Merge(parts...)
	if err := merged.Err(label); err != nil {
		return dto.DeductionPlan{}, nil, err
	}

	plan := dto.DeductionPlan{
		LineNo:       line.LineNo,
		ProductID:    line.ProductID,
		ProductName:  label,
		SaleQuantity: line.Quantity,
		Deductions:   make([]dto.Deduction, 0, len(merged.Ingredients)),
	}
	for _, ing := range merged.Ingredients {
		plan.Deductions = append(plan.Deductions, dto.Deduction{
			InventoryItemID: ing.InventoryItemID,
			Name:            ing.Name,
			Quantity:        ing.Required,
		})
	}
	return plan, merged.Warnings, nil
}
