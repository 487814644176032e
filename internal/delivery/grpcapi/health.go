package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the name the settlement service reports health under, next
// to the overall "" entry.
const ServiceName = "settlement.v1.SettlementService"

type Pinger func(ctx context.Context) error

// HealthReporter flips the gRPC health status according to database
// reachability.
type HealthReporter struct {
	server   *health.Server
	ping     Pinger
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthReporter(ping Pinger, interval time.Duration, logger *zap.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &HealthReporter{
		server:   health.NewServer(),
		ping:     ping,
		interval: interval,
		logger:   logger.Named("health"),
	}
}

func (h *HealthReporter) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Run checks once immediately and then on every tick until ctx is done, at
// which point everything is reported as not serving.
func (h *HealthReporter) Run(ctx context.Context) {
	h.check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.check(ctx)
		}
	}
}

func (h *HealthReporter) check(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.ping(pingCtx); err != nil {
		h.logger.Warn("database unreachable", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
}
