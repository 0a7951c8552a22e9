package deduction

import (
	"context"
	"errors"
	"fmt"
)

// ErrSuperseded is returned to a debounced validation request that was replaced
// by a newer one before it executed. It is control flow, not a failure.
var ErrSuperseded = errors.New("validation superseded by a newer request")

// ErrConflict is returned when an optimistic stock write kept losing to
// concurrent writers until the retry budget ran out.
var ErrConflict = errors.New("stock row changed concurrently, retries exhausted")

// ErrInvalidQuantity is returned for a sale or cart quantity that is not positive.
var ErrInvalidQuantity = errors.New("quantity must be greater than zero")

// ErrInvalidRequest marks a malformed request such as a missing store id.
var ErrInvalidRequest = errors.New("invalid request")

// ErrSaleInProgress is returned when another worker holds the sale's deduction lock.
var ErrSaleInProgress = errors.New("sale deduction already in progress")

type ResolutionKind string

const (
	MissingChoice      ResolutionKind = "missing_choice"
	InvalidChoice      ResolutionKind = "invalid_choice"
	TooManyChoices     ResolutionKind = "too_many_choices"
	UnmappedIngredient ResolutionKind = "unmapped_ingredient"
	RecipeNotFound     ResolutionKind = "recipe_not_found"
)

// ResolutionError is raised before any write when a sale line cannot be turned
// into concrete inventory requirements.
type ResolutionError struct {
	Kind       ResolutionKind
	Product    string
	Group      string
	Ingredient string
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case MissingChoice:
		return fmt.Sprintf("%s: missing choice for group %q", e.Product, e.Group)
	case InvalidChoice:
		return fmt.Sprintf("%s: %q is not an option of group %q", e.Product, e.Ingredient, e.Group)
	case TooManyChoices:
		return fmt.Sprintf("%s: group %q accepts exactly one choice", e.Product, e.Group)
	case UnmappedIngredient:
		return fmt.Sprintf("%s: ingredient %q has no inventory item", e.Product, e.Ingredient)
	case RecipeNotFound:
		return fmt.Sprintf("%s: no recipe found", e.Product)
	}
	return fmt.Sprintf("%s: resolution failed (%s)", e.Product, e.Kind)
}

type InsufficientStockError struct {
	ItemID    string
	Item      string
	Required  float64
	Available float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: required %g, available %g", e.Item, e.Required, e.Available)
}

// IOError wraps a transport or backend failure talking to the system of record.
type IOError struct {
	Op      string
	Err     error
	Timeout bool
}

func (e *IOError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Temporary reports that the operation may succeed if retried.
func (e *IOError) Temporary() bool { return true }

// WrapIO turns a non-nil store error into an *IOError, leaving nil and
// already-classified errors alone.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Err: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
}

// IsRetryable reports whether err is an I/O or concurrency failure rather than
// a business-rule failure.
func IsRetryable(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr) || errors.Is(err, ErrConflict) || errors.Is(err, ErrSaleInProgress)
}
