package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/mr1hm/crisis-alerts/internal/config"
	internalgrpc "github.com/mr1hm/crisis-alerts/internal/grpc"
	"github.com/mr1hm/crisis-alerts/internal/logging"
	"github.com/mr1hm/crisis-alerts/internal/relay"
)

// alert-watch tails the alert history over gRPC and logs every new alert.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup("alert-watch", cfg.Logging.Level)

	target := os.Getenv("ALERT_WATCH_TARGET")
	if target == "" {
		target = fmt.Sprintf("localhost:%d", cfg.GRPC.Port)
	}

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		logging.Fatalf("Failed to create gRPC client: %v", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := internalgrpc.NewClient(conn)
	stream, err := client.WatchAlerts(ctx, &internalgrpc.WatchRequest{})
	if err != nil {
		logging.Fatalf("Failed to watch alerts: %v", err)
	}

	slog.Info("watching alerts", "target", target)

	seen := make(map[string]bool)
	first := true
	for {
		snapshot, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				slog.Info("alert stream closed")
				return
			}
			logging.Fatalf("alert stream error: %v", err)
		}

		for _, a := range snapshot.Alerts {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			// The initial snapshot is history, not news.
			if first {
				continue
			}
			slog.Info("new alert", "id", a.ID, "message", relay.FormatMessage(a), "recipients", len(a.Recipients))
		}
		if first {
			slog.Info("alert history loaded", "count", len(snapshot.Alerts))
			first = false
		}
	}
}
