package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Saksham1387/realtime-leaderboard/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Observers are anonymous; cross-origin dashboards are expected.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// msgTypeScoreDelta is the only inbound message type observers may send.
const msgTypeScoreDelta = "score:delta"

// inboundMessage is the envelope read from observer connections.
type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// scoreDeltaPayload is the data of a score:delta message.
type scoreDeltaPayload struct {
	ParticipantID string  `json:"participantId"`
	Delta         float64 `json:"delta"`
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	if !s.rateLimiter.Allow(ip) {
		metrics.WebSocketConnectionsRejected.WithLabelValues("rate_limit").Inc()
		return c.String(429, "Connection rate limit exceeded")
	}

	if !s.globalLimiter.Acquire() {
		metrics.WebSocketConnectionsRejected.WithLabelValues("global_limit").Inc()
		return c.String(503, "Server at connection capacity")
	}
	defer s.globalLimiter.Release()

	if !s.ipLimiter.Acquire(ip) {
		metrics.WebSocketConnectionsRejected.WithLabelValues("ip_limit").Inc()
		return c.String(429, "Too many connections from this address")
	}
	defer s.ipLimiter.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	// Join pushes the catch-up snapshot; the read pump below keeps the
	// connection in the live set until the client goes away.
	if err := s.hub.Join(conn); err != nil {
		slog.Error("Failed to join hub", "error", err)
		_ = conn.Close()
		return nil
	}

	s.readPump(c, conn)

	s.hub.Leave(conn)
	return nil
}

// readPump processes inbound messages until the connection closes.
// Malformed or unrecognized messages are logged and ignored; they never
// terminate the connection.
func (s *Server) readPump(c echo.Context, conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg inboundMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			metrics.InboundMessagesTotal.WithLabelValues("malformed").Inc()
			slog.Warn("Malformed observer message", "error", err)
			continue
		}

		if msg.Type != msgTypeScoreDelta {
			metrics.InboundMessagesTotal.WithLabelValues("ignored").Inc()
			slog.Debug("Ignoring unrecognized message type", "type", msg.Type)
			continue
		}

		var delta scoreDeltaPayload
		if err := json.Unmarshal(msg.Data, &delta); err != nil {
			metrics.InboundMessagesTotal.WithLabelValues("malformed").Inc()
			slog.Warn("Malformed score:delta payload", "error", err)
			continue
		}

		if _, err := s.gateway.ApplyScoreDelta(c.Request().Context(), delta.ParticipantID, delta.Delta); err != nil {
			metrics.InboundMessagesTotal.WithLabelValues("rejected").Inc()
			slog.Warn("Score delta rejected",
				"participant_id", delta.ParticipantID,
				"error", err)
			continue
		}

		metrics.InboundMessagesTotal.WithLabelValues("applied").Inc()
	}
}
