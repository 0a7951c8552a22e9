// Package recovery replays deductions for completed sales that left no stock
// movement behind.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/sale"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const DefaultItemDelay = 100 * time.Millisecond

// Deducter is the checkout path recovery drives.
type Deducter interface {
	DeductSale(ctx context.Context, storeID, saleReference string, createdBy *string, lines []model.SaleLine) (*dto.DeductionOutcome, error)
}

type MovementSource interface {
	FetchMovementsForSale(ctx context.Context, saleReference string) ([]model.StockMovement, error)
}

type Stock interface {
	Snapshot(ctx context.Context, storeID string) (*inventory.Snapshot, error)
	InvalidateStore(storeID string)
}

type Service struct {
	sales     sale.Repository
	movements MovementSource
	deducter  Deducter
	stock     Stock
	delay     time.Duration
	actor     *string
	logger    logger.ZapLogger
}

// NewService builds the service. actor is recorded as the author of replayed
// movements and may be nil.
func NewService(sales sale.Repository, movements MovementSource, deducter Deducter, stock Stock, delay time.Duration, actor *string, log logger.ZapLogger) *Service {
	if delay < 0 {
		delay = DefaultItemDelay
	}
	return &Service{
		sales:     sales,
		movements: movements,
		deducter:  deducter,
		stock:     stock,
		delay:     delay,
		actor:     actor,
		logger:    log,
	}
}

// Run scans completed sales in [req.From, req.To) and replays those without an
// effective deduction, one at a time. Per-sale failures are collected in the
// summary; the returned error is set only when the scan itself failed or ctx
// ended the batch early.
func (s *Service) Run(ctx context.Context, req *dto.RecoveryRequest) (*dto.RecoverySummary, error) {
	if !req.From.Before(req.To) {
		return nil, fmt.Errorf("%w: window from %s is not before to %s", deduction.ErrInvalidRequest, req.From.Format(time.RFC3339), req.To.Format(time.RFC3339))
	}

	sales, err := s.sales.FetchCompletedSales(ctx, req.StoreID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("fetch completed sales: %w", err)
	}

	summary := &dto.RecoverySummary{
		StoreID: req.StoreID,
		From:    req.From,
		To:      req.To,
		DryRun:  req.DryRun,
		Sales:   make([]dto.RecoveredSale, 0, len(sales)),
		Errors:  []string{},
	}
	s.logger.Info("Recovery scan started",
		zap.String("store_id", req.StoreID),
		zap.Int("sales", len(sales)),
		zap.Bool("dry_run", req.DryRun),
	)

	var combined error
	replayed := false
	for i, rec := range sales {
		if i > 0 && replayed {
			if err := sleep(ctx, s.delay); err != nil {
				combined = multierr.Append(combined, err)
				break
			}
		}
		summary.Scanned++

		entry, err := s.recoverSale(ctx, req, rec)
		replayed = entry.Status == dto.SaleRecovered || entry.Status == dto.SaleFailed
		switch entry.Status {
		case dto.SaleRecovered:
			summary.RecoveredCount++
		case dto.SaleFailed:
			summary.FailedCount++
		case dto.SaleSkipped:
			summary.SkippedCount++
		case dto.SalePending:
			summary.PendingCount++
		}
		if err != nil {
			combined = multierr.Append(combined, fmt.Errorf("sale %s: %w", receipt(rec), err))
		}
		summary.Sales = append(summary.Sales, entry)
	}

	for _, err := range multierr.Errors(combined) {
		summary.Errors = append(summary.Errors, err.Error())
	}
	summary.Err = combined

	if !req.DryRun && summary.RecoveredCount+summary.FailedCount > 0 {
		s.stock.InvalidateStore(req.StoreID)
	}
	s.collectLowStock(ctx, summary)

	s.logger.Info("Recovery scan finished",
		zap.String("store_id", req.StoreID),
		zap.Int("recovered", summary.RecoveredCount),
		zap.Int("failed", summary.FailedCount),
		zap.Int("skipped", summary.SkippedCount),
		zap.Int("pending", summary.PendingCount),
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return summary, ctxErr
	}
	return summary, nil
}

func (s *Service) recoverSale(ctx context.Context, req *dto.RecoveryRequest, rec model.SaleRecord) (dto.RecoveredSale, error) {
	entry := dto.RecoveredSale{SaleID: rec.ID, ReceiptNumber: rec.ReceiptNumber, CreatedAt: rec.CreatedAt}

	movements, err := s.movements.FetchMovementsForSale(ctx, rec.ID)
	if err != nil {
		entry.Status = dto.SaleFailed
		entry.Errors = []string{err.Error()}
		return entry, err
	}
	if len(model.EffectiveDeductions(movements)) > 0 || len(rec.Lines) == 0 {
		entry.Status = dto.SaleSkipped
		return entry, nil
	}
	if req.DryRun {
		entry.Status = dto.SalePending
		return entry, nil
	}

	out, err := s.deducter.DeductSale(ctx, req.StoreID, rec.ID, s.actor, rec.Lines)
	if err != nil {
		entry.Status = dto.SaleFailed
		entry.Errors = []string{err.Error()}
		s.logger.Warn("Sale recovery failed", zap.String("sale_id", rec.ID), zap.Error(err))
		return entry, err
	}

	entry.Written = out.Written()
	if out.Success {
		entry.Status = dto.SaleRecovered
		return entry, nil
	}

	entry.Status = dto.SaleFailed
	var errs error
	for _, itemErr := range out.Errors {
		entry.Errors = append(entry.Errors, itemErr.Message)
		errs = multierr.Append(errs, itemErr)
	}
	return entry, errs
}

func (s *Service) collectLowStock(ctx context.Context, summary *dto.RecoverySummary) {
	snap, err := s.stock.Snapshot(ctx, summary.StoreID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn("Failed to load stock health after recovery", zap.Error(err))
		}
		summary.LowStock = []model.InventoryItem{}
		return
	}
	summary.LowStock = snap.LowStock()
	if summary.LowStock == nil {
		summary.LowStock = []model.InventoryItem{}
	}
}

func receipt(rec model.SaleRecord) string {
	if rec.ReceiptNumber != "" {
		return rec.ReceiptNumber
	}
	return rec.ID
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
