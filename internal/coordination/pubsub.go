// Package coordination bridges score change events between service instances
// sharing one ranking store, using Redis pub/sub.
package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	"github.com/Saksham1387/realtime-leaderboard/internal/logging"
	"github.com/Saksham1387/realtime-leaderboard/internal/metrics"
	"github.com/Saksham1387/realtime-leaderboard/internal/redis"
)

// Publisher broadcasts change events to peer instances.
type Publisher struct {
	rdb *goredis.Client
}

// NewPublisher creates a new change event publisher.
func NewPublisher(rdb *goredis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// PublishChangeEvent announces a score mutation to all instances. Peers use
// it to refresh their own observer connections; it carries no snapshot.
func (p *Publisher) PublishChangeEvent(ctx context.Context, event domain.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}
	if err := p.rdb.Publish(ctx, redis.ChangeEventChannel, payload).Err(); err != nil {
		metrics.PubSubPublishErrors.Inc()
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// PeerListener subscribes to change events published by other instances and
// hands them to the local change notifier.
type PeerListener struct {
	rdb     *goredis.Client
	handler func(domain.ChangeEvent)
}

// NewPeerListener creates a new peer event listener. handler is invoked for
// every well-formed event received from a peer.
func NewPeerListener(rdb *goredis.Client, handler func(domain.ChangeEvent)) *PeerListener {
	return &PeerListener{rdb: rdb, handler: handler}
}

// Start begins listening for peer change events.
// Blocks until ctx is cancelled.
func (l *PeerListener) Start(ctx context.Context) {
	pubsub := l.rdb.Subscribe(ctx, redis.ChangeEventChannel)
	defer func() {
		_ = pubsub.Close()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case msg := <-ch:
			if msg == nil {
				return
			}
			l.handleMessage(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage processes a single peer event payload.
func (l *PeerListener) handleMessage(payload string) {
	metrics.PubSubMessagesReceived.WithLabelValues(redis.ChangeEventChannel).Inc()

	var event domain.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		slog.Warn("Invalid change event payload from peer",
			"payload", payload,
			"error", err)
		return
	}

	logging.WithParticipant(event.ParticipantID).Debug("Peer change event received",
		"delta", event.Delta,
		"new_score", event.NewScore)

	l.handler(event)
}
