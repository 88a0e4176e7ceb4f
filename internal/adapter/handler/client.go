package handler

import (
	"context"

	"google.golang.org/grpc"
)

// OrderServiceClient calls storefront.v1.OrderService with the JSON codec.
type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, "/"+orderServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) Checkout(ctx context.Context, in *CheckoutRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, "Checkout", in, opts)
}

func (c *OrderServiceClient) GetOrderHistory(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*OrderListResponse, error) {
	return invoke[OrderListResponse](ctx, c.cc, "GetOrderHistory", in, opts)
}

func (c *OrderServiceClient) GetOrderDetails(ctx context.Context, in *OrderDetailsRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, "GetOrderDetails", in, opts)
}

func (c *OrderServiceClient) ListAllOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*OrderListResponse, error) {
	return invoke[OrderListResponse](ctx, c.cc, "ListAllOrders", in, opts)
}

func (c *OrderServiceClient) UpdateOrderStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	return invoke[OrderResponse](ctx, c.cc, "UpdateOrderStatus", in, opts)
}
