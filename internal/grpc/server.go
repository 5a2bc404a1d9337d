package grpcserver

import (
	"context"
	"log"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"deusvent/internal/auth"
	"deusvent/internal/config"
	"deusvent/internal/handlers"
	"deusvent/internal/messages"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Server implements GatewayServer on top of a message router.
type Server struct {
	Router *handlers.Router
}

var _ GatewayServer = (*Server)(nil)

// Public routes a public client message.
func (s *Server) Public(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.Router.HandleAccess(ctx, req.GetValue(), messages.Public)), nil
}

// Player routes a signed player message. The principal attached by the auth
// interceptor, if any, is visible to the handler.
func (s *Server) Player(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	return wrapperspb.String(s.Router.HandleAccess(ctx, req.GetValue(), messages.Player)), nil
}

// NewServer builds a gRPC server exposing the gateway and health services.
func NewServer(jwtSecret string, router *handlers.Router) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(jwtSecret, healthCheckMethod)),
	)
	RegisterGatewayServer(srv, &Server{Router: router})

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	return srv, healthServer
}

// StartGRPC starts the gRPC server on the configured address and returns a
// shutdown function.
func StartGRPC(cfg *config.Config, router *handlers.Router) (func(context.Context) error, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv, healthServer := NewServer(cfg.Auth.JWTSecret, router)
	go func() {
		if err := srv.Serve(lis); err != nil {
			log.Printf("[grpc] serve: %v", err)
		}
	}()

	return func(ctx context.Context) error {
		healthServer.Shutdown()
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
