package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const probeTimeout = 2 * time.Second

// probe runs every check; the first failure marks the server NOT_SERVING.
func (s *Server) probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	for _, c := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := c.Ping(cctx)
		cancel()
		if err != nil {
			s.logger.Warn(ctx, "dependency check failed", "dependency", c.Name, "error", err)
			return healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	return healthpb.HealthCheckResponse_SERVING
}

func (s *Server) update(ctx context.Context) {
	st := s.probe(ctx)
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

func (s *Server) watch(ctx context.Context) {
	s.update(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.update(ctx)
		}
	}
}
