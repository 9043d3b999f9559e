package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/version", s.handleVersion)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Mutation API
	s.echo.POST("/api/participants", s.handleRegisterParticipant)

	// Read API
	s.echo.GET("/api/leaderboard", s.handleGetLeaderboard)
	s.echo.GET("/api/rank/:id", s.handleGetRank)

	// Observer WebSocket endpoint
	s.echo.GET("/ws", s.handleWebSocket)
}
