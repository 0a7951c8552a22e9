package deduction

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
)

type UseCase interface {
	// ValidateCart is debounced per store; a request replaced before it runs
	// fails with ErrSuperseded.
	ValidateCart(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error)
	ValidateCartImmediate(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error)
	CheckoutDeduct(ctx context.Context, req *dto.CheckoutRequest) (*dto.DeductionOutcome, error)
	RunRecovery(ctx context.Context, req *dto.RecoveryRequest) (*dto.RecoverySummary, error)
}
