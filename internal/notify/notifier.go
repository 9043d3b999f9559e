// Package notify bridges successful score mutations to the broadcast hub and
// to peer instances sharing the same ranking store.
package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	"github.com/Saksham1387/realtime-leaderboard/internal/logging"
	"github.com/Saksham1387/realtime-leaderboard/internal/metrics"
)

const (
	// storeTimeout bounds each snapshot read so a hung store connection
	// cannot stall the recompute loop.
	storeTimeout   = 2 * time.Second
	publishTimeout = 2 * time.Second
)

// Publisher announces local mutations to peer instances. Optional.
type Publisher interface {
	PublishChangeEvent(ctx context.Context, event domain.ChangeEvent) error
}

// Notifier recomputes the full snapshot after every mutation and delivers it
// to the hub. Recomputation requests are coalesced: a request arriving while
// one is pending merges with it, and the shared read starts only after both
// triggering mutations are already applied, so every delivered snapshot is at
// least as fresh as the mutation that triggered it.
type Notifier struct {
	store     domain.RankingStore
	sink      domain.SnapshotSink
	publisher Publisher

	kick    chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	catchUp singleflight.Group
}

var _ domain.ChangeNotifier = (*Notifier)(nil)

// New creates a notifier and starts its recompute loop.
// publisher may be nil for single-instance deployments.
func New(store domain.RankingStore, sink domain.SnapshotSink, publisher Publisher) *Notifier {
	n := &Notifier{
		store:     store,
		sink:      sink,
		publisher: publisher,
		kick:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

// NotifyScoreChanged schedules a snapshot recomputation and fan-out for a
// local mutation, and announces the event to peers. Never blocks the caller
// on store reads or observer delivery.
func (n *Notifier) NotifyScoreChanged(ctx context.Context, event domain.ChangeEvent) {
	if n.publisher != nil {
		go func() {
			pubCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := n.publisher.PublishChangeEvent(pubCtx, event); err != nil {
				logging.WithParticipant(event.ParticipantID).Error("Failed to publish change event",
					"error", err)
			}
		}()
	}

	metrics.SnapshotRecomputationsTotal.WithLabelValues("local").Inc()
	n.requestRecompute()
}

// HandlePeerEvent reacts to a mutation performed by another instance. The
// event is logged for observability and the local snapshot is refreshed so
// this instance's own observers stay current.
func (n *Notifier) HandlePeerEvent(event domain.ChangeEvent) {
	logging.WithParticipant(event.ParticipantID).Info("Refreshing snapshot after peer mutation",
		"new_score", event.NewScore)

	metrics.SnapshotRecomputationsTotal.WithLabelValues("peer").Inc()
	n.requestRecompute()
}

// CurrentSnapshot reads the full ranking for join-time catch-up. Concurrent
// joins share one store read via singleflight.
func (n *Notifier) CurrentSnapshot(ctx context.Context) (domain.Snapshot, error) {
	v, err, _ := n.catchUp.Do("snapshot", func() (any, error) {
		return n.store.TopN(ctx, 0)
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.Snapshot), nil
}

// Stop terminates the recompute loop. Pending recomputations are discarded.
func (n *Notifier) Stop() {
	close(n.stopCh)
	<-n.done
}

// requestRecompute coalesces with an already-pending request.
func (n *Notifier) requestRecompute() {
	select {
	case n.kick <- struct{}{}:
	default:
	}
}

func (n *Notifier) run() {
	defer close(n.done)

	for {
		select {
		case <-n.stopCh:
			return
		case <-n.kick:
			n.recompute()
		}
	}
}

// recompute reads the full ranking and hands it to the hub. A failed read
// broadcasts nothing: observers keep their last consistent snapshot instead
// of receiving incomplete data.
func (n *Notifier) recompute() {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	snapshot, err := n.store.TopN(ctx, 0)
	if err != nil {
		slog.Error("Snapshot recomputation failed", "error", err)
		return
	}

	metrics.SnapshotSize.Set(float64(len(snapshot)))
	n.sink.BroadcastSnapshot(snapshot)
}
