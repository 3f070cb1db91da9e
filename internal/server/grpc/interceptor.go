package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor records every unary call at Debug level.
//
// Logged fields:
//
//	method   - full RPC name, e.g. "/grpc.health.v1.Health/Check"
//	code     - gRPC status code of the result ("OK" on success)
//	duration - time spent in the handler
//
// The handler's response and error are returned unchanged; the interceptor
// never alters status codes.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	// status.Code maps a nil error to codes.OK
	s.logger.Debug(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)

	return resp, err
}
