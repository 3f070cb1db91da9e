package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the API as a whole.
const ServiceName = "ordermeow"

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

// SetServing flips the overall and per-service status.
func (s *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// WatchProbe runs probe every interval until ctx is done and publishes the
// result as the serving status. The first check runs immediately.
func (s *GRPCServer) WatchProbe(ctx context.Context, probe Probe, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := true
	for {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		err := probe(checkCtx)
		cancel()

		ok := err == nil
		if ok != last {
			if ok {
				s.logger.Info(ctx, "dependency probe recovered")
			} else {
				s.logger.Warn(ctx, "dependency probe failed", "error", err)
			}
		}
		last = ok
		s.SetServing(ok)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
