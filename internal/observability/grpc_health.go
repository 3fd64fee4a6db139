package observability

import (
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// GRPCHealthServer serves grpc.health.v1 for orchestrators that check liveness over gRPC
type GRPCHealthServer struct {
	server *grpc.Server
	health *health.Server
}

// NewGRPCHealthServer creates a gRPC server exposing only the health service.
// The overall service and ServiceName both start as SERVING.
func NewGRPCHealthServer() *GRPCHealthServer {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &GRPCHealthServer{server: srv, health: hs}
}

// Serve listens on addr and blocks until Stop is called
func (g *GRPCHealthServer) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return g.ServeListener(lis)
}

// ServeListener serves on an existing listener
func (g *GRPCHealthServer) ServeListener(lis net.Listener) error {
	if err := g.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc health server: %w", err)
	}
	return nil
}

// SetServing flips the reported status of the service
func (g *GRPCHealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
}

// Stop marks the service NOT_SERVING and drains in-flight RPCs
func (g *GRPCHealthServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
