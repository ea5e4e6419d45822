package rpc

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hohotang/shortlink-service/internal/middleware"
	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/hohotang/shortlink-service/internal/service"
)

type mappingService interface {
	Create(ctx context.Context, originalURL string, expiresAt *time.Time) (*models.Mapping, error)
	GetByShortKey(ctx context.Context, key string) (*models.Mapping, error)
	IncrementHits(ctx context.Context, key string) (*models.Mapping, error)
	Delete(ctx context.Context, key string) (bool, error)
}

// Server implements MappingServiceServer on top of the mapping service
type Server struct {
	svc     mappingService
	baseURL string
}

// NewServer creates a new Server instance
func NewServer(svc mappingService, baseURL string) *Server {
	return &Server{svc: svc, baseURL: baseURL}
}

// Create implements MappingServiceServer.Create
func (s *Server) Create(ctx context.Context, req *CreateRequest) (*Mapping, error) {
	m, err := s.svc.Create(ctx, req.URL, req.ExpiresAt)
	if err != nil {
		return nil, toStatus(err)
	}
	return toMapping(m, s.baseURL), nil
}

// Get implements MappingServiceServer.Get
func (s *Server) Get(ctx context.Context, req *ShortKeyRequest) (*Mapping, error) {
	m, err := s.svc.GetByShortKey(ctx, req.ShortKey)
	if err != nil {
		return nil, toStatus(err)
	}
	return toMapping(m, s.baseURL), nil
}

// Resolve implements MappingServiceServer.Resolve
func (s *Server) Resolve(ctx context.Context, req *ShortKeyRequest) (*Mapping, error) {
	m, err := s.svc.IncrementHits(ctx, req.ShortKey)
	if err != nil {
		return nil, toStatus(err)
	}
	return toMapping(m, s.baseURL), nil
}

// Delete implements MappingServiceServer.Delete
func (s *Server) Delete(ctx context.Context, req *ShortKeyRequest) (*DeleteResponse, error) {
	deleted, err := s.svc.Delete(ctx, req.ShortKey)
	if err != nil {
		return nil, toStatus(err)
	}
	if !deleted {
		return nil, status.Errorf(codes.NotFound, "short key not found: %s", req.ShortKey)
	}
	return &DeleteResponse{Deleted: true}, nil
}

// toStatus maps service errors to gRPC status codes
func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "short key not found")
	case errors.Is(err, service.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrKeyExhaustion):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}

// NewGRPCServer builds a grpc.Server serving srv with request logging, panic
// recovery and, when telemetry is enabled, OpenTelemetry instrumentation
func NewGRPCServer(srv MappingServiceServer, log *zap.Logger, telemetry bool) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(Codec{}),
		grpc.UnaryInterceptor(middleware.ChainUnaryInterceptors(
			middleware.LoggerInterceptor(log),
			middleware.PanicRecoveryInterceptor(log),
		)),
	}

	if telemetry {
		// Configure to propagate trace context properly
		opts = append(opts, grpc.StatsHandler(otelgrpc.NewServerHandler(
			otelgrpc.WithPropagators(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			)),
		)))
		log.Info("gRPC server created with OpenTelemetry integration")
	} else {
		log.Info("gRPC server created without OpenTelemetry integration")
	}

	s := grpc.NewServer(opts...)
	RegisterMappingServiceServer(s, srv)

	return s
}
