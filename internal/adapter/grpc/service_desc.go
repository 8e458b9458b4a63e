package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "portfolio.v1.PortfolioService"

// Full method names
const (
	GetMetricsMethod        = "/" + ServiceName + "/GetMetrics"
	BootstrapHoldingsMethod = "/" + ServiceName + "/BootstrapHoldings"
	PostTradeMethod         = "/" + ServiceName + "/PostTrade"
)

// PortfolioServiceServer is the server API for the portfolio service.
// Messages are google.protobuf.Struct documents with the same fields as the HTTP API.
type PortfolioServiceServer interface {
	GetMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BootstrapHoldings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PostTrade(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterPortfolioServiceServer registers srv on s
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&PortfolioServiceDesc, srv)
}

// PortfolioServiceDesc describes the portfolio service to grpc.Server
var PortfolioServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetMetrics",
			Handler:    unaryHandler(GetMetricsMethod, PortfolioServiceServer.GetMetrics),
		},
		{
			MethodName: "BootstrapHoldings",
			Handler:    unaryHandler(BootstrapHoldingsMethod, PortfolioServiceServer.BootstrapHoldings),
		},
		{
			MethodName: "PostTrade",
			Handler:    unaryHandler(PostTradeMethod, PortfolioServiceServer.PostTrade),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "portfolio/v1/portfolio.proto",
}

type structMethod func(PortfolioServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PortfolioServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PortfolioServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PortfolioServiceClient is the client API for the portfolio service
type PortfolioServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPortfolioServiceClient creates a client over cc
func NewPortfolioServiceClient(cc grpc.ClientConnInterface) *PortfolioServiceClient {
	return &PortfolioServiceClient{cc: cc}
}

func (c *PortfolioServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMetrics calls PortfolioService.GetMetrics
func (c *PortfolioServiceClient) GetMetrics(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetMetricsMethod, in, opts...)
}

// BootstrapHoldings calls PortfolioService.BootstrapHoldings
func (c *PortfolioServiceClient) BootstrapHoldings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, BootstrapHoldingsMethod, in, opts...)
}

// PostTrade calls PortfolioService.PostTrade
func (c *PortfolioServiceClient) PostTrade(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PostTradeMethod, in, opts...)
}
