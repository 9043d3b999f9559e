package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Saksham1387/realtime-leaderboard/internal/config"
	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	apperrors "github.com/Saksham1387/realtime-leaderboard/internal/errors"
	"github.com/Saksham1387/realtime-leaderboard/internal/hub"
)

// Server wires the HTTP and WebSocket surface to the core. It is a plumbing
// collaborator: it parses requests, invokes the gateway/store/hub and
// forwards their results.
type Server struct {
	echo        *echo.Echo
	config      *config.Config
	gateway     domain.MutationGateway
	store       domain.RankingStore
	hub         *hub.Hub
	redisClient *goredis.Client

	globalLimiter *GlobalConnectionLimiter
	ipLimiter     *IPConnectionLimiter
	rateLimiter   *ConnectionRateLimiter

	startTime time.Time
}

func NewServer(cfg *config.Config, gateway domain.MutationGateway, store domain.RankingStore, h *hub.Hub, redisClient *goredis.Client) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:          e,
		config:        cfg,
		gateway:       gateway,
		store:         store,
		hub:           h,
		redisClient:   redisClient,
		globalLimiter: NewGlobalConnectionLimiter(int64(cfg.MaxWebSocketConnections)),
		ipLimiter:     NewIPConnectionLimiter(cfg.MaxConnectionsPerIP),
		rateLimiter:   NewConnectionRateLimiter(cfg.ConnectionRatePerSec, cfg.ConnectionRateBurst),
		startTime:     time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
