// Package executor writes sale deductions to the stock system of record.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/quantity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultMaxRetries = 5

// StockCache is the part of the read-cache the executor keeps coherent.
type StockCache interface {
	UpdateEntry(storeID, itemID string, newQuantity float64, newVersion int64) bool
	InvalidateStore(storeID string)
}

type Config struct {
	// MaxRetries bounds compare-and-swap attempts per row after the first.
	MaxRetries int
	// Compensate reverses a sale's written deductions when any of its rows fails.
	Compensate bool
}

type Executor struct {
	repo   inventory.Repository
	cache  StockCache
	events EventPublisher
	cfg    Config
	logger logger.ZapLogger
	now    func() time.Time
	sales  saleLocks
}

// New builds an executor. cache and events may be nil.
func New(repo inventory.Repository, cache StockCache, events EventPublisher, cfg Config, log logger.ZapLogger) *Executor {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Executor{
		repo:   repo,
		cache:  cache,
		events: events,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// Execute applies every plan of one sale. Rows are independent: a failing row is
// reported in the outcome's Errors and does not stop its siblings. Rows already
// recorded for saleReference are skipped, so re-running a sale is safe. Runs of
// the same sale in this process are serialized. The returned error is set only
// when nothing could be attempted.
func (e *Executor) Execute(ctx context.Context, storeID, saleReference string, createdBy *string, plans []dto.DeductionPlan) (*dto.DeductionOutcome, error) {
	unlock := e.sales.lock(saleReference)
	defer unlock()

	existing, err := e.repo.FetchMovementsForSale(ctx, saleReference)
	if err != nil {
		return nil, fmt.Errorf("load movements of %s: %w", saleReference, err)
	}
	applied := model.EffectiveDeductions(existing)

	out := &dto.DeductionOutcome{StoreID: storeID, SaleReference: saleReference}
	dirty := false

	for _, plan := range plans {
		for _, d := range plan.Deductions {
			key := model.MovementKey{Line: plan.LineNo, ItemID: d.InventoryItemID}
			if m, ok := applied[key]; ok {
				out.Deductions = append(out.Deductions, dto.ItemResult{
					LineNo:           plan.LineNo,
					InventoryItemID:  d.InventoryItemID,
					Name:             d.Name,
					Quantity:         -m.QuantityChange,
					PreviousQuantity: m.PreviousQuantity,
					NewQuantity:      m.NewQuantity,
					MovementID:       m.ID,
					AlreadyApplied:   true,
				})
				continue
			}

			res, err := e.apply(ctx, storeID, saleReference, createdBy, plan.LineNo, d, model.MovementTypeSale,
				fmt.Sprintf("%s x%g", plan.ProductName, plan.SaleQuantity))
			if err != nil {
				e.logger.Warn("Deduction failed",
					zap.String("sale_reference", saleReference),
					zap.Int("line", plan.LineNo),
					zap.String("item", d.Name),
					zap.Error(err),
				)
				out.Errors = append(out.Errors, dto.ItemError{
					LineNo:          plan.LineNo,
					InventoryItemID: d.InventoryItemID,
					Name:            d.Name,
					Err:             err,
					Message:         err.Error(),
				})
				if !isBusinessFailure(err) {
					dirty = true
				}
				continue
			}
			out.Deductions = append(out.Deductions, res)
		}
	}

	out.Success = len(out.Errors) == 0
	if !out.Success && e.cfg.Compensate {
		if !e.compensate(ctx, storeID, saleReference, createdBy, out) {
			dirty = true
		}
	}

	// A write whose result is unknown may have landed; drop the snapshot
	// before anyone is told the sale finished.
	if dirty && e.cache != nil {
		e.cache.InvalidateStore(storeID)
	}

	e.publishOutcome(ctx, out)
	e.logger.Info("Sale deduction executed",
		zap.String("store_id", storeID),
		zap.String("sale_reference", saleReference),
		zap.Bool("success", out.Success),
		zap.Int("written", out.Written()),
		zap.Int("errors", len(out.Errors)),
		zap.Int("compensated", len(out.Compensated)),
	)
	return out, nil
}

// compensate reverses this run's writes, newest first. It reports whether every
// reversal landed.
func (e *Executor) compensate(ctx context.Context, storeID, saleReference string, createdBy *string, out *dto.DeductionOutcome) bool {
	ok := true
	for i := len(out.Deductions) - 1; i >= 0; i-- {
		d := out.Deductions[i]
		if d.AlreadyApplied {
			continue
		}
		rev, err := e.apply(ctx, storeID, saleReference, createdBy, d.LineNo, dto.Deduction{
			InventoryItemID: d.InventoryItemID,
			Name:            d.Name,
			Quantity:        -d.Quantity,
		}, model.MovementTypeSaleReversal, "reversal of failed sale")
		if err != nil {
			ok = false
			e.logger.Error("Failed to reverse deduction",
				zap.String("sale_reference", saleReference),
				zap.String("item", d.Name),
				zap.Error(err),
			)
			continue
		}
		out.Compensated = append(out.Compensated, rev)
	}
	return ok
}

// apply subtracts d.Quantity from the row with a compare-and-swap loop. A
// negative quantity adds stock back.
func (e *Executor) apply(ctx context.Context, storeID, saleReference string, createdBy *string, line int, d dto.Deduction, movementType, notes string) (dto.ItemResult, error) {
	for attempt := 0; attempt <= e.cfg.MaxRetries; attempt++ {
		item, err := e.repo.GetItem(ctx, d.InventoryItemID)
		if err != nil {
			return dto.ItemResult{}, err
		}
		if item == nil || !item.IsActive {
			return dto.ItemResult{}, &deduction.ResolutionError{Kind: deduction.UnmappedIngredient, Ingredient: d.Name}
		}

		newQty := quantity.Sub(item.Quantity, d.Quantity)
		if newQty < 0 {
			return dto.ItemResult{}, &deduction.InsufficientStockError{
				ItemID:    item.ID,
				Item:      item.Name,
				Required:  d.Quantity,
				Available: item.Quantity,
			}
		}

		m := &model.StockMovement{
			ID:               uuid.New().String(),
			StoreID:          storeID,
			InventoryStockID: item.ID,
			MovementType:     movementType,
			QuantityChange:   -d.Quantity,
			PreviousQuantity: item.Quantity,
			NewQuantity:      newQty,
			ReferenceType:    model.ReferenceTypeTransaction,
			ReferenceID:      saleReference,
			ReferenceLine:    line,
			Notes:            notes,
			CreatedBy:        createdBy,
			CreatedAt:        e.now(),
		}
		ok, err := e.repo.ApplyMovement(ctx, item.ID, item.Version, newQty, m)
		if err != nil {
			return dto.ItemResult{}, err
		}
		if !ok {
			e.logger.Debug("Stock row changed under us, retrying",
				zap.String("item_id", item.ID),
				zap.Int("attempt", attempt+1),
			)
			continue
		}

		if e.cache != nil {
			e.cache.UpdateEntry(storeID, item.ID, newQty, item.Version+1)
		}
		after := *item
		after.Quantity = newQty
		return dto.ItemResult{
			LineNo:           line,
			InventoryItemID:  item.ID,
			Name:             item.Name,
			Quantity:         d.Quantity,
			PreviousQuantity: item.Quantity,
			NewQuantity:      newQty,
			MovementID:       m.ID,
			LowStock:         after.IsLowStock(),
		}, nil
	}
	return dto.ItemResult{}, deduction.ErrConflict
}

func isBusinessFailure(err error) bool {
	var insufficient *deduction.InsufficientStockError
	var resolution *deduction.ResolutionError
	return errors.As(err, &insufficient) || errors.As(err, &resolution)
}
