package handler

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/i18n"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/pkg/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func TestMain(m *testing.M) {
	i18n.Init()
	os.Exit(m.Run())
}

type fakeUseCase struct {
	validation *dto.ValidationResult
	outcome    *dto.DeductionOutcome
	summary    *dto.RecoverySummary
	err        error

	lastCheckout *dto.CheckoutRequest
	lastRecovery *dto.RecoveryRequest
}

func (f *fakeUseCase) ValidateCart(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error) {
	return f.validation, f.err
}

func (f *fakeUseCase) ValidateCartImmediate(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error) {
	return f.validation, f.err
}

func (f *fakeUseCase) CheckoutDeduct(ctx context.Context, req *dto.CheckoutRequest) (*dto.DeductionOutcome, error) {
	f.lastCheckout = req
	return f.outcome, f.err
}

func (f *fakeUseCase) RunRecovery(ctx context.Context, req *dto.RecoveryRequest) (*dto.RecoverySummary, error) {
	f.lastRecovery = req
	return f.summary, f.err
}

func dial(t *testing.T, uc deduction.UseCase) *Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.ContextInterceptor()))
	Register(srv, NewDeductionHandler(uc, logger.NewNop()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"resolution", &deduction.ResolutionError{Kind: deduction.MissingChoice}, codes.InvalidArgument},
		{"invalid request", deduction.ErrInvalidRequest, codes.InvalidArgument},
		{"stock", &deduction.InsufficientStockError{}, codes.FailedPrecondition},
		{"io", deduction.WrapIO("fetch", context.DeadlineExceeded), codes.Unavailable},
		{"conflict", deduction.ErrConflict, codes.Aborted},
		{"locked", deduction.ErrSaleInProgress, codes.Aborted},
		{"superseded", deduction.ErrSuperseded, codes.Aborted},
		{"canceled", context.Canceled, codes.Canceled},
		{"other", assert.AnError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestCheckoutDeduct_ContextAndLocale(t *testing.T) {
	uc := &fakeUseCase{outcome: &dto.DeductionOutcome{
		Errors: []dto.ItemError{{
			Name: "Croissant",
			Err:  &deduction.InsufficientStockError{Item: "Croissant", Required: 3, Available: 2},
		}},
	}}
	client := dial(t, uc)

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-store-id", "s1", "x-user-id", "cashier-1", "accept-language", "fil")
	out, err := client.CheckoutDeduct(ctx, &dto.CheckoutRequest{SaleReference: "tx-1"})
	require.NoError(t, err)

	require.NotNil(t, uc.lastCheckout)
	assert.Equal(t, "s1", uc.lastCheckout.StoreID)
	assert.Equal(t, "cashier-1", uc.lastCheckout.UserID)
	require.Len(t, out.Errors, 1)
	assert.True(t, strings.HasPrefix(out.Errors[0].Message, "Kulang ang Croissant"), out.Errors[0].Message)
}

func TestCheckoutDeduct_ErrorStatus(t *testing.T) {
	client := dial(t, &fakeUseCase{err: &deduction.ResolutionError{Kind: deduction.MissingChoice, Product: "Mini Croffle", Group: "Sauce"}})

	_, err := client.CheckoutDeduct(context.Background(), &dto.CheckoutRequest{StoreID: "s1", SaleReference: "tx-1"})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "Please choose an option for Sauce.", st.Message())
}

func TestValidateCart_LocalizesIssues(t *testing.T) {
	client := dial(t, &fakeUseCase{validation: &dto.ValidationResult{
		Errors: []dto.Issue{{Code: dto.IssueUnmappedIngredient, Ingredient: "Ube Halaya", Message: "raw"}},
		Items:  map[string]*dto.LineValidation{},
	}})

	res, err := client.ValidateCartImmediate(context.Background(), &dto.ValidateCartRequest{StoreID: "s1"})
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Message, "Ube Halaya is not linked")
}

func TestRunRecoveryHTTP(t *testing.T) {
	uc := &fakeUseCase{summary: &dto.RecoverySummary{StoreID: "s1", RecoveredCount: 2}}
	r := chi.NewRouter()
	NewDeductionHandler(uc, logger.NewNop()).RegisterRoutes(r)

	body := `{"from":"2026-03-01T00:00:00Z","to":"2026-03-02T00:00:00Z","dry_run":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/s1/recovery", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recovered_count":2`)
	require.NotNil(t, uc.lastRecovery)
	assert.Equal(t, "s1", uc.lastRecovery.StoreID)
	assert.True(t, uc.lastRecovery.DryRun)
	assert.Equal(t, 24*time.Hour, uc.lastRecovery.To.Sub(uc.lastRecovery.From))
}

func TestValidateCartHTTP_Error(t *testing.T) {
	r := chi.NewRouter()
	NewDeductionHandler(&fakeUseCase{err: deduction.WrapIO("fetch inventory", assert.AnError)}, logger.NewNop()).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/stores/s1/cart/validate", strings.NewReader(`{"items":[]}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unreachable")
}
