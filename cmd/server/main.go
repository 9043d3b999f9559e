package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Saksham1387/realtime-leaderboard/internal/config"
	"github.com/Saksham1387/realtime-leaderboard/internal/coordination"
	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	"github.com/Saksham1387/realtime-leaderboard/internal/gateway"
	"github.com/Saksham1387/realtime-leaderboard/internal/hub"
	"github.com/Saksham1387/realtime-leaderboard/internal/logging"
	"github.com/Saksham1387/realtime-leaderboard/internal/notify"
	"github.com/Saksham1387/realtime-leaderboard/internal/redis"
	"github.com/Saksham1387/realtime-leaderboard/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupRedis(cfg *config.Config) *goredis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, h *hub.Hub, notifier *notify.Notifier, stopListener context.CancelFunc, timeout time.Duration) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopListener()
		h.Stop()
		notifier.Stop()

		close(done)
	}()

	return done
}

func main() {
	cfg := setupConfig()

	// Initialize structured logging
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	clock := clockwork.NewRealClock()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	store := redis.NewRankingStore(redisClient)
	publisher := coordination.NewPublisher(redisClient)

	// The hub's catch-up provider routes through the notifier so
	// simultaneous joins share one store read.
	var notifier *notify.Notifier
	h := hub.New(func(ctx context.Context) (domain.Snapshot, error) {
		return notifier.CurrentSnapshot(ctx)
	}, clock)
	notifier = notify.New(store, h, publisher)

	listenerCtx, stopListener := context.WithCancel(context.Background())
	listener := coordination.NewPeerListener(redisClient, notifier.HandlePeerEvent)
	go listener.Start(listenerCtx)

	gw := gateway.New(store, notifier)

	srv := server.NewServer(cfg, gw, store, h, redisClient)

	done := runGracefulShutdown(srv, h, notifier, stopListener, cfg.ShutdownTimeout)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
