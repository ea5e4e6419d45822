// internal/middleware/logger_interceptor.go

package middleware

import (
	"context"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/hohotang/shortlink-service/internal/logger"
)

// RequestIDHeader is the metadata key carrying the request ID, shared with the HTTP API
const RequestIDHeader = "x-request-id"

// LoggerInterceptor creates a gRPC interceptor that injects a request-scoped logger
// into the context and logs one line per call
func LoggerInterceptor(baseLogger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := extractRequestID(ctx)
		// Echo the ID so clients can correlate; failure only means headers were already sent
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))

		reqLogger := addRequestInfo(baseLogger.With(
			zap.String("requestID", requestID),
			zap.String("method", info.FullMethod),
		), req)

		startTime := time.Now()
		reqLogger.Debug("Processing request")

		resp, err := handler(logger.WithContext(ctx, reqLogger), req)

		code := status.Code(err)
		reqLogger.Log(levelFor(code), "Request completed",
			zap.String("status", code.String()),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)

		return resp, err
	}
}

// levelFor keeps caller mistakes out of the error log
func levelFor(code codes.Code) zapcore.Level {
	switch code {
	case codes.OK:
		return zapcore.InfoLevel
	case codes.NotFound, codes.InvalidArgument, codes.Canceled:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// extractRequestID gets the request ID from context metadata, minting one if absent
func extractRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(RequestIDHeader); len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return gonanoid.Must()
}

// addRequestInfo adds the short key or URL a request refers to
func addRequestInfo(log *zap.Logger, req any) *zap.Logger {
	switch typedReq := req.(type) {
	case interface{ GetURL() string }:
		if u := typedReq.GetURL(); u != "" {
			log = log.With(zap.String("originalUrl", u))
		}
	case interface{ GetShortKey() string }:
		if key := typedReq.GetShortKey(); key != "" {
			log = log.With(zap.String("shortKey", key))
		}
	}

	return log
}
