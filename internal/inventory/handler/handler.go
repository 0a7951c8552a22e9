package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-inventory-service/internal/auth"
	"github.com/fekuna/omnipos-inventory-service/internal/deduction"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "omnipos.inventory.v1.InventoryService"

type StoreRequest struct {
	StoreID string `json:"store_id"`
}

type SaleRequest struct {
	SaleReference string `json:"sale_reference"`
}

type InventoryResponse struct {
	Items []model.InventoryItem `json:"items"`
	Total int                   `json:"total"`
}

type MovementsResponse struct {
	Movements []model.StockMovement `json:"movements"`
	Total     int                   `json:"total"`
}

type Empty struct{}

type InventoryServer interface {
	GetStoreInventory(ctx context.Context, req *StoreRequest) (*InventoryResponse, error)
	ListLowStock(ctx context.Context, req *StoreRequest) (*InventoryResponse, error)
	ListSaleMovements(ctx context.Context, req *SaleRequest) (*MovementsResponse, error)
	InvalidateCache(ctx context.Context, req *StoreRequest) (*Empty, error)
}

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) GetStoreInventory(ctx context.Context, req *StoreRequest) (*InventoryResponse, error) {
	storeID, err := storeFrom(ctx, req)
	if err != nil {
		return nil, err
	}

	items, err := h.uc.GetStoreInventory(ctx, storeID)
	if err != nil {
		return nil, h.internal("GetStoreInventory", err)
	}
	return &InventoryResponse{Items: items, Total: len(items)}, nil
}

func (h *InventoryHandler) ListLowStock(ctx context.Context, req *StoreRequest) (*InventoryResponse, error) {
	storeID, err := storeFrom(ctx, req)
	if err != nil {
		return nil, err
	}

	items, err := h.uc.ListLowStock(ctx, storeID)
	if err != nil {
		return nil, h.internal("ListLowStock", err)
	}
	if items == nil {
		items = []model.InventoryItem{}
	}
	return &InventoryResponse{Items: items, Total: len(items)}, nil
}

func (h *InventoryHandler) ListSaleMovements(ctx context.Context, req *SaleRequest) (*MovementsResponse, error) {
	if req.SaleReference == "" {
		return nil, status.Error(codes.InvalidArgument, "sale_reference is required")
	}

	mvs, err := h.uc.ListSaleMovements(ctx, req.SaleReference)
	if err != nil {
		return nil, h.internal("ListSaleMovements", err)
	}
	if mvs == nil {
		mvs = []model.StockMovement{}
	}
	return &MovementsResponse{Movements: mvs, Total: len(mvs)}, nil
}

func (h *InventoryHandler) InvalidateCache(ctx context.Context, req *StoreRequest) (*Empty, error) {
	storeID, err := storeFrom(ctx, req)
	if err != nil {
		return nil, err
	}
	h.uc.InvalidateStore(storeID)
	return &Empty{}, nil
}

func (h *InventoryHandler) internal(method string, err error) error {
	var ioErr *deduction.IOError
	if errors.As(err, &ioErr) {
		return status.Error(codes.Unavailable, err.Error())
	}
	h.logger.Error(method+" failed", zap.Error(err))
	return status.Error(codes.Internal, err.Error())
}

func storeFrom(ctx context.Context, req *StoreRequest) (string, error) {
	storeID := req.StoreID
	if storeID == "" {
		storeID = auth.GetStoreID(ctx)
	}
	if storeID == "" {
		return "", status.Error(codes.InvalidArgument, "store_id is required")
	}
	return storeID, nil
}

func Register(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStoreInventory", InventoryServer.GetStoreInventory),
		unary("ListLowStock", InventoryServer.ListLowStock),
		unary("ListSaleMovements", InventoryServer.ListSaleMovements),
		unary("InvalidateCache", InventoryServer.InvalidateCache),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/inventory/v1/inventory.json",
}

func unary[Req, Resp any](method string, call func(InventoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(InventoryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
