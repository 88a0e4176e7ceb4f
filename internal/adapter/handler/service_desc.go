package handler

import (
	"context"

	"google.golang.org/grpc"
)

const orderServiceName = "storefront.v1.OrderService"

// OrderServiceServer is the server API for storefront.v1.OrderService.
type OrderServiceServer interface {
	Checkout(context.Context, *CheckoutRequest) (*OrderResponse, error)
	GetOrderHistory(context.Context, *ListOrdersRequest) (*OrderListResponse, error)
	GetOrderDetails(context.Context, *OrderDetailsRequest) (*OrderResponse, error)
	ListAllOrders(context.Context, *ListOrdersRequest) (*OrderListResponse, error)
	UpdateOrderStatus(context.Context, *UpdateStatusRequest) (*OrderResponse, error)
}

func unary[Req, Resp any](method string, call func(OrderServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + orderServiceName + "/" + method,
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*Req))
		})
	}
}

var OrderService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: orderServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Checkout", Handler: unary("Checkout", OrderServiceServer.Checkout)},
		{MethodName: "GetOrderHistory", Handler: unary("GetOrderHistory", OrderServiceServer.GetOrderHistory)},
		{MethodName: "GetOrderDetails", Handler: unary("GetOrderDetails", OrderServiceServer.GetOrderDetails)},
		{MethodName: "ListAllOrders", Handler: unary("ListAllOrders", OrderServiceServer.ListAllOrders)},
		{MethodName: "UpdateOrderStatus", Handler: unary("UpdateOrderStatus", OrderServiceServer.UpdateOrderStatus)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/order_service",
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderService_ServiceDesc, srv)
}
