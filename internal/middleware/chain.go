// internal/middleware/chain.go

package middleware

import (
	"context"

	"google.golang.org/grpc"
)

// ChainUnaryInterceptors creates a single interceptor from multiple interceptors.
// The first interceptor is the outer-most; the last one wraps the real call.
func ChainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		chained := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			next, interceptor := chained, interceptors[i]
			chained = func(ctx context.Context, req any) (any, error) {
				return interceptor(ctx, req, info, next)
			}
		}

		return chained(ctx, req)
	}
}
