package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gotel "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/hohotang/shortlink-service/internal/config"
	"github.com/hohotang/shortlink-service/internal/handler"
	"github.com/hohotang/shortlink-service/internal/logger"
	"github.com/hohotang/shortlink-service/internal/otel"
	"github.com/hohotang/shortlink-service/internal/rpc"
	"github.com/hohotang/shortlink-service/internal/service"
	"github.com/hohotang/shortlink-service/internal/storage"
	"github.com/hohotang/shortlink-service/internal/utils"
	"github.com/hohotang/shortlink-service/internal/worker"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		// Use standard output here since the logger may not be initialized yet
		fmt.Printf("shortlink-service: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Telemetry.ServiceName, cfg.Telemetry.Environment, cfg.Log.Level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	log := logger.L()

	// Initialize OpenTelemetry if enabled
	observer := service.Observer(nil)
	if cfg.Telemetry.Enabled {
		log.Info("Initializing OpenTelemetry",
			zap.String("endpoint", cfg.Telemetry.OTLPEndpoint),
			zap.String("protocol", cfg.Telemetry.Protocol))

		shutdown, err := otel.Init(otel.Config{
			OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
			Protocol:       cfg.Telemetry.Protocol,
			ServiceName:    cfg.Telemetry.ServiceName,
			ServiceVersion: version,
			Environment:    cfg.Telemetry.Environment,
		})
		if err != nil {
			log.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Warn("Error shutting down OpenTelemetry", zap.Error(err))
				}
			}()
		}

		recorder, err := newRecorder(gotel.GetMeterProvider())
		if err != nil {
			log.Warn("Failed to create metric recorder", zap.Error(err))
		} else {
			observer = recorder
		}
	}

	// Initialize backends
	store, err := storage.NewRecordStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to create record store: %w", err)
	}
	defer store.Close()
	log.Info("Record store ready", zap.String("type", cfg.Storage.Type.String()))

	cache, err := storage.NewCache(ctx, cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer cache.Close()
	log.Info("Cache ready", zap.String("type", cfg.Cache.Type.String()))

	keys, err := utils.NewRandomKeyGenerator(cfg.KeyGen.Length)
	if err != nil {
		return fmt.Errorf("failed to create key generator: %w", err)
	}

	opts := []service.Option{
		service.WithOptions(service.Options{
			MaxAttempts: cfg.KeyGen.MaxAttempts,
			WriteTTL:    cfg.Cache.WriteTTL,
			ReadTTL:     cfg.Cache.ReadTTL,
		}),
		service.WithLogger(log),
	}
	if observer != nil {
		opts = append(opts, service.WithObserver(observer))
	}
	svc := service.NewMappingService(store, cache, keys, opts...)

	// Initialize servers
	httpServer := &http.Server{
		Addr: cfg.Server.HTTPAddr(),
		Handler: handler.NewRouter(log, svc, store, cache, handler.Config{
			BaseURL:        cfg.Server.BaseURL,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	grpcServer := rpc.NewGRPCServer(rpc.NewServer(svc, cfg.Server.BaseURL), log, cfg.Telemetry.Enabled)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Server.GRPCAddr(), err)
	}

	sweeper := worker.NewExpirySweeper(log, svc, cfg.Sweeper.Interval, cfg.Sweeper.BatchSize)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error occurred: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("gRPC server error occurred: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sweeper.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()

		err := httpServer.Shutdown(shutdownCtx)

		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			log.Warn("gRPC graceful stop timed out, forcing stop")
			grpcServer.Stop()
		}

		if err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
		log.Info("Servers stopped")
		return nil
	})

	return g.Wait()
}

func newRecorder(provider metric.MeterProvider) (*otel.Recorder, error) {
	return otel.NewRecorder(otel.Meter(provider),
		service.EventMappingCreated,
		service.EventMappingDeleted,
		service.EventHitRecorded,
	)
}
