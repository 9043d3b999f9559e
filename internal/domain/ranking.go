package domain

import (
	"context"
	"sort"
)

// RankedEntry is a read-only projection of one participant at a point in time.
type RankedEntry struct {
	ParticipantID string  `json:"participantId"`
	Score         float64 `json:"score"`
}

// Snapshot is an immutable, score-descending view of the ranking.
// Ties are broken by ascending participant id so repeated reads of an
// unchanged store always produce the same order.
type Snapshot []RankedEntry

// Sort orders the snapshot by score descending, ties ascending by id.
func (s Snapshot) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].ParticipantID < s[j].ParticipantID
	})
}

// Clone returns an independent copy so a snapshot handed to the hub can
// never be mutated by a later recomputation.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// RankingStore is the adapter over the backing ordered key-score structure.
// All mutations must be single atomic operations against the backing store;
// the adapter never retries on its own.
type RankingStore interface {
	// Upsert registers a participant with the given score. If the
	// participant already exists the call is a no-op and the existing
	// score is preserved.
	Upsert(ctx context.Context, participantID string, initialScore float64) error

	// IncrementScore atomically adds delta to the participant's score,
	// creating the participant at delta if absent. Returns the new score.
	IncrementScore(ctx context.Context, participantID string, delta float64) (float64, error)

	// TopN returns a snapshot of the n highest-scored participants.
	// n <= 0 returns all participants.
	TopN(ctx context.Context, n int) (Snapshot, error)

	// RankOf returns the 1-based descending rank of a participant.
	// Returns ErrParticipantNotFound if the participant is unknown.
	RankOf(ctx context.Context, participantID string) (int64, error)
}

// ChangeEvent is the lightweight cross-instance notification published
// after every successful score mutation.
type ChangeEvent struct {
	ParticipantID string  `json:"participantId"`
	Delta         float64 `json:"delta"`
	NewScore      float64 `json:"newScore"`
}

// ChangeNotifier bridges successful mutations to the broadcast path.
type ChangeNotifier interface {
	// NotifyScoreChanged triggers a snapshot recomputation and fan-out.
	// It never blocks on observer delivery.
	NotifyScoreChanged(ctx context.Context, event ChangeEvent)
}

// SnapshotSink receives freshly computed snapshots for delivery to
// observers. Implemented by the broadcast hub.
type SnapshotSink interface {
	BroadcastSnapshot(snapshot Snapshot)
}

// MutationGateway validates and executes score-changing intents.
type MutationGateway interface {
	RegisterParticipant(ctx context.Context, participantID string, initialScore float64) error
	ApplyScoreDelta(ctx context.Context, participantID string, delta float64) (float64, error)
}
