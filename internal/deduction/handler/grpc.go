package handler

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const ServiceName = "omnipos.inventory.v1.DeductionService"

// DeductionServer is the server API of DeductionService. Messages travel with
// the grpcjson codec.
type DeductionServer interface {
	ValidateCart(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error)
	ValidateCartImmediate(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error)
	CheckoutDeduct(ctx context.Context, req *dto.CheckoutRequest) (*dto.DeductionOutcome, error)
	RunRecovery(ctx context.Context, req *dto.RecoveryRequest) (*dto.RecoverySummary, error)
}

type DeductionHandler struct {
	uc     deduction.UseCase
	logger logger.ZapLogger
}

func NewDeductionHandler(uc deduction.UseCase, log logger.ZapLogger) *DeductionHandler {
	return &DeductionHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *DeductionHandler) ValidateCart(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error) {
	lang := auth.GetLocale(ctx)
	if req.StoreID == "" {
		req.StoreID = auth.GetStoreID(ctx)
	}

	res, err := h.uc.ValidateCart(ctx, req)
	if err != nil {
		return nil, toStatus(lang, err)
	}
	LocalizeResult(lang, res)
	return res, nil
}

func (h *DeductionHandler) ValidateCartImmediate(ctx context.Context, req *dto.ValidateCartRequest) (*dto.ValidationResult, error) {
	lang := auth.GetLocale(ctx)
	if req.StoreID == "" {
		req.StoreID = auth.GetStoreID(ctx)
	}

	res, err := h.uc.ValidateCartImmediate(ctx, req)
	if err != nil {
		return nil, toStatus(lang, err)
	}
	LocalizeResult(lang, res)
	return res, nil
}

func (h *DeductionHandler) CheckoutDeduct(ctx context.Context, req *dto.CheckoutRequest) (*dto.DeductionOutcome, error) {
	lang := auth.GetLocale(ctx)
	if req.StoreID == "" {
		req.StoreID = auth.GetStoreID(ctx)
	}
	if req.UserID == "" {
		req.UserID = auth.GetUserID(ctx)
	}

	out, err := h.uc.CheckoutDeduct(ctx, req)
	if err != nil {
		h.logger.Warn("CheckoutDeduct rejected", zap.String("sale_reference", req.SaleReference), zap.Error(err))
		return nil, toStatus(lang, err)
	}
	LocalizeOutcome(lang, out)
	return out, nil
}

func (h *DeductionHandler) RunRecovery(ctx context.Context, req *dto.RecoveryRequest) (*dto.RecoverySummary, error) {
	if req.StoreID == "" {
		req.StoreID = auth.GetStoreID(ctx)
	}

	summary, err := h.uc.RunRecovery(ctx, req)
	if err != nil && summary == nil {
		return nil, toStatus(auth.GetLocale(ctx), err)
	}
	// An interrupted run still reports what it did.
	return summary, nil
}

// Register attaches srv to s under ServiceName.
func Register(s grpc.ServiceRegistrar, srv DeductionServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DeductionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ValidateCart", DeductionServer.ValidateCart),
		unary("ValidateCartImmediate", DeductionServer.ValidateCartImmediate),
		unary("CheckoutDeduct", DeductionServer.CheckoutDeduct),
		unary("RunRecovery", DeductionServer.RunRecovery),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/inventory/v1/deduction.json",
}

func unary[Req, Resp any](method string, call func(DeductionServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DeductionServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(DeductionServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
