package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mr1hm/crisis-alerts/internal/alerting"
	"github.com/mr1hm/crisis-alerts/internal/api"
	"github.com/mr1hm/crisis-alerts/internal/config"
	internalgrpc "github.com/mr1hm/crisis-alerts/internal/grpc"
	"github.com/mr1hm/crisis-alerts/internal/logging"
	"github.com/mr1hm/crisis-alerts/internal/relay"
	"github.com/mr1hm/crisis-alerts/internal/repository"
	"github.com/mr1hm/crisis-alerts/internal/sms"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup("crisis-alerts", cfg.Logging.Level)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "store", cfg.Store.Driver)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		logging.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	smsService := sms.NewService(cfg.SMS.Latency)

	var (
		smsRelay *relay.Relay
		relayer  alerting.Relayer
	)
	if cfg.SMS.RelayEnabled {
		smsRelay = relay.New(smsService, cfg.Worker.Count, cfg.Worker.BufferSize)
		smsRelay.Start(ctx)
		relayer = smsRelay
	}

	svc := alerting.NewService(store, cfg.Alerts.TestRecipients, relayer)

	grpcServer := internalgrpc.NewServer(svc)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))

	handler := api.NewHandler(svc, smsService)
	handler.RegisterRoutes(router)

	// Request contexts derive from streamCtx so shutdown can end SSE streams.
	streamCtx, cancelStreams := context.WithCancel(ctx)
	defer cancelStreams()

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return streamCtx },
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancelStreams()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	grpcServer.Stop()
	svc.Close()

	if smsRelay != nil {
		smsRelay.Stop()
	}
	cancel()

	slog.Info("shutdown complete")
}

func openStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return repository.NewMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		return repository.NewSQLiteDB(cfg.SQLitePath)
	}
}
