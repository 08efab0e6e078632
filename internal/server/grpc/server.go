// Package grpc exposes the attendance services over gRPC with JSON
// payloads, next to the standard health service.
package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/dmitrijs2005/attendance/internal/logging"
	"github.com/dmitrijs2005/attendance/internal/server/services"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	address   string
	att       *services.Attendance
	logger    logging.Logger
	jwtSecret []byte
	validate  *validator.Validate
}

var _ AttendanceServiceServer = (*GRPCServer)(nil)

// NewGRPCServer builds the server. An empty secretKey turns off the
// access token check.
func NewGRPCServer(address string, l logging.Logger, att *services.Attendance, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   address,
		att:       att,
		logger:    l.With("module", "grpc_server"),
		jwtSecret: []byte(secretKey),
		validate:  newValidator(),
	}
}

// Register installs the attendance service on srv together with a health
// server reporting it as SERVING.
func (s *GRPCServer) Register(srv *grpc.Server) *health.Server {
	RegisterAttendanceServiceServer(srv, s)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return hs
}

// NewServer creates a grpc.Server with the logging and access token
// interceptors and registers the services on it.
func (s *GRPCServer) NewServer() (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	return srv, s.Register(srv)
}

// Run serves until ctx is cancelled, then marks the health service as
// not serving and stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv, hs := s.NewServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	<-stopped
	return nil
}
