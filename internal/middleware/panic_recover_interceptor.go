// internal/middleware/panic_recover_interceptor.go

package middleware

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hohotang/shortlink-service/internal/logger"
)

// PanicRecoveryInterceptor creates a gRPC interceptor that turns a panic in a
// handler into an Internal error. It must run inside LoggerInterceptor to log
// with the request-scoped logger.
func PanicRecoveryInterceptor(baseLogger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log := logger.FromContext(ctx)
				if log == nil {
					log = baseLogger
				}
				log.Error("Panic recovered in gRPC handler",
					zap.Any("panic", r),
					zap.String("method", info.FullMethod),
					zap.Stack("stack"),
				)

				resp = nil
				err = status.Error(codes.Internal, "internal server error")
			}
		}()

		return handler(ctx, req)
	}
}
