// Package grpc exposes the standard gRPC health service so orchestrators can
// probe the server independently of the HTTP API.
package grpc

import (
	"context"
	"net"

	"github.com/ordermeow/ordermeow/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type GRPCServer struct {
	address string
	health  *health.Server
	logger  logging.Logger
}

// NewGRPCServer creates a server that will listen on a. Both the overall
// status and ServiceName start as NOT_SERVING and stay there until a
// dependency probe (see WatchProbe) or SetServing reports otherwise, so a
// health check never sees an unknown service.
func NewGRPCServer(a string, l logging.Logger) *GRPCServer {
	s := &GRPCServer{
		address: a,
		health:  health.NewServer(),
		logger:  l.With("module", "grpc_server"),
	}
	s.SetServing(false)
	return s
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	// creates gRPC-server
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))

	// registers services
	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
