package handler

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/deduction/dto"
	"github.com/fekuna/omnipos-inventory-service/pkg/grpcjson"
	"google.golang.org/grpc"
)

// Client calls DeductionService over a connection using the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ValidateCartImmediate(ctx context.Context, req *dto.ValidateCartRequest, opts ...grpc.CallOption) (*dto.ValidationResult, error) {
	out := new(dto.ValidationResult)
	if err := c.invoke(ctx, "ValidateCartImmediate", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckoutDeduct(ctx context.Context, req *dto.CheckoutRequest, opts ...grpc.CallOption) (*dto.DeductionOutcome, error) {
	out := new(dto.DeductionOutcome)
	if err := c.invoke(ctx, "CheckoutDeduct", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RunRecovery(ctx context.Context, req *dto.RecoveryRequest, opts ...grpc.CallOption) (*dto.RecoverySummary, error) {
	out := new(dto.RecoverySummary)
	if err := c.invoke(ctx, "RunRecovery", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(grpcjson.Name)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}
