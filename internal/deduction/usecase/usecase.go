package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/checkout"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/recovery"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/validation"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "omnipos-inventory/deduction"

type deductionUseCase struct {
	coordinator *validation.Coordinator
	checkout    *checkout.Service
	recovery    *recovery.Service
	logger      logger.ZapLogger
}

func NewDeductionUseCase(coordinator *validation.Coordinator, checkout *checkout.Service, recovery *recovery.Service, log logger.ZapLogger) deduction.UseCase {
	return &deductionUseCase{
		coordinator: coordinator,
		checkout:    checkout,
		recovery:    recovery,
		logger:      log,
	}
}

func (uc *deductionUseCase) ValidateCart(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error) {
	if err := requireStore(req.StoreID); err != nil {
		return nil, err
	}
	return uc.coordinator.Validate(ctx, req.StoreID, req.Items)
}

func (uc *deductionUseCase) ValidateCartImmediate(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error) {
	if err := requireStore(req.StoreID); err != nil {
		return nil, err
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "deduction.ValidateCartImmediate",
		trace.WithAttributes(
			attribute.String("store_id", req.StoreID),
			attribute.Int("items", len(req.Items)),
		),
	)
	defer span.End()

	res, err := uc.coordinator.ValidateImmediate(ctx, req.StoreID, req.Items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("valid", res.Valid),
		attribute.Int("issues", len(res.Errors)),
	)
	return res, nil
}

func (uc *deductionUseCase) CheckoutDeduct(ctx context.Context, req *dto.CheckoutRequest) (*dto.DeductionOutcome, error) {
	if err := requireStore(req.StoreID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SaleReference) == "" {
		return nil, fmt.Errorf("%w: sale reference is required", deduction.ErrInvalidRequest)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "deduction.CheckoutDeduct",
		trace.WithAttributes(
			attribute.String("store_id", req.StoreID),
			attribute.String("sale_reference", req.SaleReference),
			attribute.Int("lines", len(req.Lines)),
		),
	)
	defer span.End()

	var createdBy *string
	if req.UserID != "" {
		id := req.UserID
		createdBy = &id
	}

	out, err := uc.checkout.DeductSale(ctx, req.StoreID, req.SaleReference, createdBy, req.Lines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "deduction failed")
		uc.logger.Warn("Checkout deduction failed",
			zap.String("store_id", req.StoreID),
			zap.String("sale_reference", req.SaleReference),
			zap.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.Bool("success", out.Success),
		attribute.Int("written", out.Written()),
		attribute.Int("compensated", len(out.Compensated)),
	)
	if !out.Success {
		span.SetStatus(codes.Error, "partial deduction")
	}
	return out, nil
}

func (uc *deductionUseCase) RunRecovery(ctx context.Context, req *dto.RecoveryRequest) (*dto.RecoverySummary, error) {
	if err := requireStore(req.StoreID); err != nil {
		return nil, err
	}
	ctx, span := otel.Tracer(tracerName).Start(ctx, "deduction.RunRecovery",
		trace.WithAttributes(
			attribute.String("store_id", req.StoreID),
			attribute.Bool("dry_run", req.DryRun),
		),
	)
	defer span.End()

	summary, err := uc.recovery.Run(ctx, req)
	if summary != nil {
		span.SetAttributes(
			attribute.Int("scanned", summary.Scanned),
			attribute.Int("recovered", summary.RecoveredCount),
			attribute.Int("failed", summary.FailedCount),
		)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recovery interrupted")
	}
	return summary, err
}

func requireStore(storeID string) error {
	if strings.TrimSpace(storeID) == "" {
		return fmt.Errorf("%w: store id is required", deduction.ErrInvalidRequest)
	}
	return nil
}
