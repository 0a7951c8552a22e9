package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/i18n"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var issueMessages = map[string]string{
	dto.IssueInsufficientStock:  "stock.insufficient",
	dto.IssueUnmappedIngredient: "ingredient.unmapped",
	dto.IssueMissingChoice:      "choice.missing",
	dto.IssueInvalidChoice:      "choice.invalid",
	dto.IssueTooManyChoices:     "choice.too_many",
	dto.IssueRecipeNotFound:     "recipe.not_found",
	dto.IssueInvalidQuantity:    "quantity.invalid",
}

func issueData(is dto.Issue) map[string]interface{} {
	return map[string]interface{}{
		"Item":       is.Item,
		"Ingredient": is.Ingredient,
		"Group":      is.Group,
		"Product":    is.Product,
		"Required":   is.Required,
		"Available":  is.Available,
	}
}

func localizeIssues(lang string, issues []dto.Issue) {
	for i := range issues {
		if id, ok := issueMessages[issues[i].Code]; ok {
			issues[i].Message = i18n.T(lang, id, issueData(issues[i]))
		}
	}
}

// LocalizeResult rewrites every issue message of res into lang.
func LocalizeResult(lang string, res *dto.ValidationResult) {
	if res == nil {
		return
	}
	localizeIssues(lang, res.Errors)
	for _, lv := range res.Items {
		localizeIssues(lang, lv.Errors)
	}
}

// LocalizeOutcome rewrites per-item deduction errors into lang.
func LocalizeOutcome(lang string, out *dto.DeductionOutcome) {
	if out == nil {
		return
	}
	for i, e := range out.Errors {
		if msg, ok := errorMessage(lang, e.Err); ok {
			out.Errors[i].Message = msg
		}
	}
}

func errorMessage(lang string, err error) (string, bool) {
	var resErr *deduction.ResolutionError
	var stockErr *deduction.InsufficientStockError
	var ioErr *deduction.IOError
	switch {
	case errors.As(err, &resErr):
		id := issueMessages[string(resErr.Kind)]
		if id == "" {
			return "", false
		}
		return i18n.T(lang, id, issueData(dto.Issue{
			Product:    resErr.Product,
			Group:      resErr.Group,
			Ingredient: resErr.Ingredient,
		})), true
	case errors.As(err, &stockErr):
		return i18n.T(lang, "stock.insufficient", issueData(dto.Issue{
			Item:      stockErr.Item,
			Required:  stockErr.Required,
			Available: stockErr.Available,
		})), true
	case errors.As(err, &ioErr):
		return i18n.T(lang, "backend.unavailable", nil), true
	case errors.Is(err, deduction.ErrSuperseded):
		return i18n.T(lang, "validation.superseded", nil), true
	case errors.Is(err, deduction.ErrInvalidQuantity):
		return i18n.T(lang, "quantity.invalid", nil), true
	}
	return "", false
}

// Code maps a deduction error onto a gRPC status code.
func Code(err error) codes.Code {
	var resErr *deduction.ResolutionError
	var stockErr *deduction.InsufficientStockError
	var ioErr *deduction.IOError
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &ioErr):
		return codes.DeadlineExceeded
	case errors.Is(err, deduction.ErrInvalidRequest),
		errors.Is(err, deduction.ErrInvalidQuantity),
		errors.As(err, &resErr):
		return codes.InvalidArgument
	case errors.As(err, &stockErr):
		return codes.FailedPrecondition
	case errors.As(err, &ioErr):
		return codes.Unavailable
	case errors.Is(err, deduction.ErrSuperseded),
		errors.Is(err, deduction.ErrConflict),
		errors.Is(err, deduction.ErrSaleInProgress):
		return codes.Aborted
	}
	return codes.Internal
}

func toStatus(lang string, err error) error {
	msg, ok := errorMessage(lang, err)
	if !ok {
		msg = err.Error()
	}
	return status.Error(Code(err), msg)
}
