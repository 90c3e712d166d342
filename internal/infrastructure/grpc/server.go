package grpc

import (
	"context"
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/wekeepgrowing/semo-billing/internal/config"
	pkglogger "github.com/wekeepgrowing/semo-billing/pkg/logger"
)

// Server serves the standard gRPC health service so orchestrators can
// health-check the billing process alongside its HTTP API.
type Server struct {
	config   *config.Config
	logger   *zap.Logger
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		logger: logger,
		health: health.NewServer(),
	}
	s.server = grpc.NewServer(
		grpc.ChainUnaryInterceptor(pkglogger.NewGrpcUnaryServerInterceptor(logger)),
		grpc.ChainStreamInterceptor(pkglogger.NewGrpcStreamServerInterceptor(logger)),
	)
	healthpb.RegisterHealthServer(s.server, s.health)
	return s
}

// Start listens on the configured address and blocks until the server stops.
func (s *Server) Start() error {
	addr := s.config.Server.GRPC.Address()

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve runs the server on an existing listener.
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(s.config.Service.Name, healthpb.HealthCheckResponse_SERVING)

	s.logger.Info("Starting gRPC server", zap.String("address", listener.Addr().String()))

	if err := s.server.Serve(listener); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// SetServing flips the health status, e.g. to NOT_SERVING while draining.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(s.config.Service.Name, status)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
