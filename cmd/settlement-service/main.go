package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-settlement-service/internal/app/background"
	"github.com/LavaJover/shvark-settlement-service/internal/app/setup"
	"github.com/LavaJover/shvark-settlement-service/internal/config"
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-settlement-service/internal/delivery/http/middleware"
	consumer "github.com/LavaJover/shvark-settlement-service/internal/delivery/kafka"
	"github.com/LavaJover/shvark-settlement-service/internal/infrastructure/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const serviceName = "settlement-service"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	zapLogger, err := logger.New(logger.Config{
		Level:  cfg.LogConfig.LogLevel,
		Format: cfg.LogConfig.LogFormat,
		Output: cfg.LogConfig.LogOutput,
	})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger = zapLogger.With(zap.String("service", serviceName), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to init dependencies", zap.Error(err))
	}
	useCases, err := setup.InitializeUseCases(deps)
	if err != nil {
		zapLogger.Fatal("failed to init usecases", zap.Error(err))
	}
	disputeUc := useCases.DisputeUsecase

	// Background: stale lease reaper and party events
	partyConsumer := consumer.NewPartyConsumer(deps.Subscriber, disputeUc, cfg.Kafka.PartyTopic, cfg.Kafka.GroupID, zapLogger)
	tasks := background.NewBackgroundTasks(disputeUc, cfg.Generation.ReaperInterval, zapLogger, partyConsumer)
	tasks.StartAll(ctx)

	// gRPC health
	grpcServer := grpc.NewServer()
	healthReporter := grpcapi.NewHealthReporter(deps.PingDB, 10*time.Second, zapLogger)
	healthReporter.Register(grpcServer)
	go healthReporter.Run(ctx)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		zapLogger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		zapLogger.Info("gRPC server started", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			zapLogger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	// HTTP API
	router := handlers.NewRouter(handlers.RouterConfig{
		ServiceName: serviceName,
		Auth: middleware.AuthConfig{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.Issuer,
		},
		Health: deps.PingDB,
	}, handlers.NewDisputeHandler(disputeUc), zapLogger)

	httpAddr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	go func() {
		zapLogger.Info("HTTP server started", zap.String("addr", httpAddr))
		if err := router.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Error("HTTP server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("failed to stop HTTP server", zap.Error(err))
	}
	grpcServer.GracefulStop()
	if err := disputeUc.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("generations still running at shutdown", zap.Error(err))
	}
	deps.Close()
}
