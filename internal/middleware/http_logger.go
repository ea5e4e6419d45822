package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hohotang/shortlink-service/internal/logger"
)

// RequestLogger is an HTTP middleware that stores a request-scoped logger in
// the request context and logs method, path, status, size and duration of each
// request. It expects chi's RequestID middleware to run first.
func RequestLogger(baseLogger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := baseLogger.With(
				zap.String("requestID", chimw.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLogger)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			fields := []zap.Field{
				zap.Int("status", status),
				zap.Int("size", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			switch {
			case status >= http.StatusInternalServerError:
				reqLogger.Error("HTTP request", fields...)
			case status >= http.StatusBadRequest:
				reqLogger.Warn("HTTP request", fields...)
			default:
				reqLogger.Info("HTTP request", fields...)
			}
		})
	}
}
