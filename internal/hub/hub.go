// Package hub owns the live observer connections and fans ranking snapshots
// out to all of them.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	"github.com/Saksham1387/realtime-leaderboard/internal/logging"
	"github.com/Saksham1387/realtime-leaderboard/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
	catchUpTimeout = 2 * time.Second

	// msgTypeRankingUpdate is the outbound snapshot push message type.
	msgTypeRankingUpdate = "ranking:update"
)

// updateMessage is the wire shape pushed to every observer.
type updateMessage struct {
	Type string          `json:"type"`
	Data domain.Snapshot `json:"data"`
}

// SnapshotProvider supplies the current ranking for join-time catch-up.
type SnapshotProvider func(ctx context.Context) (domain.Snapshot, error)

// hubCmd is the command interface for the Hub actor.
type hubCmd interface{ isHubCmd() }

type baseHubCmd struct{}

func (baseHubCmd) isHubCmd() {}

type joinCmd struct {
	baseHubCmd
	connection   *websocket.Conn
	errorChannel chan error
}

type leaveCmd struct {
	baseHubCmd
	connection *websocket.Conn
}

type broadcastCmd struct {
	baseHubCmd
	snapshot domain.Snapshot
}

type sendToCmd struct {
	baseHubCmd
	connection *websocket.Conn
	data       []byte
	revision   uint64
}

type observerCountCmd struct {
	baseHubCmd
	replyChannel chan int
}

type stopCmd struct {
	baseHubCmd
}

// Hub is a single-goroutine actor owning the observer registry. All
// registry mutations go through the command channel, so iteration during a
// broadcast can never observe a connection in a half-removed state: a
// connection is either present and sendable or absent.
type Hub struct {
	cmdCh    chan hubCmd
	clock    clockwork.Clock
	clients  map[*websocket.Conn]*clientWriter
	snapshot SnapshotProvider
	done     chan struct{}

	// revision increments on every broadcast. Catch-up pushes carry the
	// revision seen at join time, so a catch-up read that was overtaken by
	// a broadcast is discarded instead of regressing the observer's view.
	revision uint64
}

// New creates a hub and starts its command loop. snapshot supplies the
// catch-up view pushed to every newly joined observer.
func New(snapshot SnapshotProvider, clock clockwork.Clock) *Hub {
	h := &Hub{
		cmdCh:    make(chan hubCmd, 256),
		clock:    clock,
		clients:  make(map[*websocket.Conn]*clientWriter),
		snapshot: snapshot,
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

// Join adds an observer connection to the live set and schedules an
// immediate catch-up snapshot push, so a new observer never starts from an
// empty view if data exists.
func (h *Hub) Join(conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- joinCmd{connection: conn, errorChannel: errCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("join command timed out after %v", commandTimeout)
	}
}

// Leave removes an observer connection. Idempotent: leaving twice, or
// leaving a connection that never joined, is a no-op.
func (h *Hub) Leave(conn *websocket.Conn) {
	h.cmdCh <- leaveCmd{connection: conn}
}

// BroadcastSnapshot delivers a snapshot to every open observer connection.
// Delivery failure on one connection never blocks or aborts delivery to
// others.
func (h *Hub) BroadcastSnapshot(snapshot domain.Snapshot) {
	h.cmdCh <- broadcastCmd{snapshot: snapshot.Clone()}
}

// ObserverCount returns the number of live observer connections.
// Returns -1 if the command times out.
func (h *Hub) ObserverCount() int {
	replyCh := make(chan int, 1)
	h.cmdCh <- observerCountCmd{replyChannel: replyCh}

	timer := h.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ObserverCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts down the hub, closing all observer connections.
// Blocks until the hub goroutine has exited or the timeout is reached.
func (h *Hub) Stop() {
	h.cmdCh <- stopCmd{}

	timeout := h.clock.NewTimer(stopTimeout)
	defer timeout.Stop()

	select {
	case <-h.done:
		slog.Info("Hub stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Hub stop timeout exceeded", "timeout", stopTimeout)
		metrics.HubStopTimeoutsTotal.Inc()
	}
}

func (h *Hub) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Hub panic recovered", "panic", r)
			metrics.HubPanicsTotal.Inc()
			h.closeAllClients("hub panic")
		}
	}()
	defer close(h.done)

	// Track command channel depth every second.
	depthTicker := h.clock.NewTicker(1 * time.Second)
	defer depthTicker.Stop()

	for {
		select {
		case <-depthTicker.Chan():
			depth := len(h.cmdCh)
			metrics.HubCommandChannelDepth.Set(float64(depth))
			if depth > 200 { // 80% of 256
				slog.Warn("Hub command channel near capacity",
					"depth", depth,
					"capacity", cap(h.cmdCh),
				)
			}

		case cmd := <-h.cmdCh:
			switch c := cmd.(type) {
			case joinCmd:
				h.handleJoin(c)
			case leaveCmd:
				h.handleLeave(c.connection)
			case broadcastCmd:
				h.handleBroadcast(c.snapshot)
			case sendToCmd:
				h.handleSendTo(c)
			case observerCountCmd:
				c.replyChannel <- len(h.clients)
			case stopCmd:
				h.handleStop()
				return
			default:
				slog.Warn("Hub received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
			}
		}
	}
}

func (h *Hub) handleJoin(c joinCmd) {
	if _, exists := h.clients[c.connection]; exists {
		c.errorChannel <- fmt.Errorf("connection already joined")
		return
	}

	cw := newClientWriter(uuid.New(), c.connection, h.clock)
	h.clients[c.connection] = cw

	metrics.HubConnectedObservers.Set(float64(len(h.clients)))
	logging.WithConnection(cw.id.String()).Debug("Observer joined",
		"total_observers", len(h.clients))
	c.errorChannel <- nil

	// Catch-up push runs off the actor goroutine so a slow store read
	// cannot stall joins, leaves, or broadcasts for everyone else.
	go h.pushCatchUp(c.connection, h.revision)
}

// pushCatchUp fetches the current snapshot and queues it for one connection.
// revision is the broadcast revision observed at join time; the read result
// is at least that fresh.
func (h *Hub) pushCatchUp(conn *websocket.Conn, revision uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), catchUpTimeout)
	defer cancel()

	snapshot, err := h.snapshot(ctx)
	if err != nil {
		// The observer stays connected and receives the next broadcast.
		slog.Error("Catch-up snapshot fetch failed", "error", err)
		return
	}

	data, err := json.Marshal(updateMessage{Type: msgTypeRankingUpdate, Data: snapshot})
	if err != nil {
		slog.Error("Failed to marshal catch-up message", "error", err)
		return
	}

	h.cmdCh <- sendToCmd{connection: conn, data: data, revision: revision}
}

// handleSendTo delivers a one-shot message to a single connection. If the
// connection left between scheduling and delivery, the send is discarded. A
// message older than the last broadcast already sent to the connection is
// discarded too, so a slow catch-up read can never roll the observer back
// behind a broadcast it has received.
func (h *Hub) handleSendTo(c sendToCmd) {
	cw, exists := h.clients[c.connection]
	if !exists {
		return
	}

	if cw.lastRevision > c.revision {
		logging.WithConnection(cw.id.String()).Debug("Discarding catch-up push overtaken by broadcast")
		return
	}

	select {
	case cw.sendChannel <- c.data:
		cw.lastRevision = c.revision
	default:
		logging.WithConnection(cw.id.String()).Warn("Dropping catch-up push to slow observer")
		metrics.HubSlowObserversEvicted.Inc()
		h.handleLeave(c.connection)
	}
}

func (h *Hub) handleLeave(conn *websocket.Conn) {
	cw, exists := h.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(h.clients, conn)

	metrics.HubConnectedObservers.Set(float64(len(h.clients)))
	logging.WithConnection(cw.id.String()).Debug("Observer left",
		"remaining_observers", len(h.clients))
}

func (h *Hub) handleBroadcast(snapshot domain.Snapshot) {
	metrics.HubBroadcastsTotal.Inc()
	h.revision++

	data, err := json.Marshal(updateMessage{Type: msgTypeRankingUpdate, Data: snapshot})
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "error", err)
		return
	}

	var slow []*websocket.Conn
	for conn, writer := range h.clients {
		select {
		case writer.sendChannel <- data:
			writer.lastRevision = h.revision
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		logging.WithConnection(h.clients[conn].id.String()).Warn("Disconnecting slow observer")
		metrics.HubSlowObserversEvicted.Inc()
		h.handleLeave(conn)
	}
}

func (h *Hub) handleStop() {
	slog.Info("Hub shutting down", "observers", len(h.clients))
	h.closeAllClients("Server shutting down")
	slog.Info("Hub shutdown complete")
}

// closeAllClients closes all observer connections with the given reason.
// Used during panic recovery and graceful shutdown.
func (h *Hub) closeAllClients(reason string) {
	for conn, cw := range h.clients {
		cw.stopGraceful(reason)
		delete(h.clients, conn)
	}
	metrics.HubConnectedObservers.Set(0)
}
