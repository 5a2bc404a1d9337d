package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Gateway service and method names.
const (
	ServiceName  = "deusvent.v1.Gateway"
	PublicMethod = "/" + ServiceName + "/Public"
	PlayerMethod = "/" + ServiceName + "/Player"
)

// GatewayServer carries serialized client messages. Both methods answer with
// a serialized server message, failures included.
type GatewayServer interface {
	Public(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	Player(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
}

// RegisterGatewayServer registers srv with s.
func RegisterGatewayServer(s grpc.ServiceRegistrar, srv GatewayServer) {
	s.RegisterService(&GatewayServiceDesc, srv)
}

// GatewayServiceDesc describes deusvent.v1.Gateway. The messages are
// well-known wrapper types so no generated code is needed.
var GatewayServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GatewayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Public", Handler: unaryHandler(PublicMethod, GatewayServer.Public)},
		{MethodName: "Player", Handler: unaryHandler(PlayerMethod, GatewayServer.Player)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "deusvent/v1/gateway.proto",
}

type gatewayMethod func(GatewayServer, context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)

func unaryHandler(fullMethod string, call gatewayMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(wrapperspb.StringValue)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(GatewayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(GatewayServer), ctx, req.(*wrapperspb.StringValue))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GatewayClient calls deusvent.v1.Gateway.
type GatewayClient struct {
	cc grpc.ClientConnInterface
}

// NewGatewayClient returns a client using cc.
func NewGatewayClient(cc grpc.ClientConnInterface) *GatewayClient {
	return &GatewayClient{cc: cc}
}

// Public sends a public client message.
func (c *GatewayClient) Public(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, PublicMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Player sends a signed player message.
func (c *GatewayClient) Player(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, PlayerMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
