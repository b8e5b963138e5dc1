package server

import (
	"errors"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer - gRPC health probe. Пока хранилище не готово, отвечает NOT_SERVING
type HealthServer struct {
	addr   string
	grpc   *grpc.Server
	health *health.Server
}

func NewHealthServer(addr string) *HealthServer {
	s := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, hs)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{addr: addr, grpc: s, health: hs}
}

func (h *HealthServer) SetServing() {
	h.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
}

func (h *HealthServer) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return err
	}
	slog.Info("health server starting", "address", h.addr)
	if err := h.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Stop переводит probe в NOT_SERVING и останавливает сервер
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
