// Package server implements the HTTP server using Echo framework.
//
// Routes: participant registration, leaderboard/rank reads, the observer
// WebSocket endpoint, and health/metrics. Handlers split by concern:
// handlers.go (REST), handlers_ws.go (WebSocket), handlers_health.go.
package server
