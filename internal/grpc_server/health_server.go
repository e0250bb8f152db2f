package grpc_server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check service reported for the transfer pipeline.
const ServiceName = "transfer.Pipeline"

type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	log      *slog.Logger
}

func NewHealthServer(listener net.Listener, log *slog.Logger) *HealthServer {
	server := grpc.NewServer()
	healthServer := health.NewServer()

	grpc_health_v1.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	s := &HealthServer{
		server:   server,
		health:   healthServer,
		listener: listener,
		log:      log,
	}
	s.SetServing(false)
	return s
}

func (s *HealthServer) Run() error {
	s.log.Info("gRPC health server запускается", slog.String("addr", s.listener.Addr().String()))
	return s.server.Serve(s.listener)
}

// SetServing reports the pipeline state on both the named service and the server-wide "" entry.
func (s *HealthServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Watch publishes running() every interval until ctx is done, so the reported
// status follows the pipeline through any start or stop path.
func (s *HealthServer) Watch(ctx context.Context, running func() bool, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := running()
	s.SetServing(last)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := running()
			if current == last {
				continue
			}
			s.log.Info("статус конвейера изменился", slog.Bool("serving", current))
			s.SetServing(current)
			last = current
		}
	}
}

func (s *HealthServer) Shutdown() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
