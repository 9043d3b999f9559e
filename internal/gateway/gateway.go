// Package gateway validates and executes score-changing intents against the
// ranking store and hands successful mutations to the change notifier.
package gateway

import (
	"context"
	"strings"

	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	apperrors "github.com/Saksham1387/realtime-leaderboard/internal/errors"
	"github.com/Saksham1387/realtime-leaderboard/internal/metrics"
)

// Gateway serializes external mutation intents into atomic store operations.
// Store failures abort the mutation and propagate to the caller; the gateway
// never retries and never notifies on failure.
type Gateway struct {
	store    domain.RankingStore
	notifier domain.ChangeNotifier
}

var _ domain.MutationGateway = (*Gateway)(nil)

func New(store domain.RankingStore, notifier domain.ChangeNotifier) *Gateway {
	return &Gateway{store: store, notifier: notifier}
}

// RegisterParticipant registers a participant with an initial score.
// Registering an existing participant preserves its score. Registration is
// not a ranking-relevant event, so no broadcast is triggered.
func (g *Gateway) RegisterParticipant(ctx context.Context, participantID string, initialScore float64) error {
	if !validParticipantID(participantID) {
		metrics.MutationsTotal.WithLabelValues("register", "invalid").Inc()
		return apperrors.ValidationError("participantId is required")
	}

	if err := g.store.Upsert(ctx, participantID, initialScore); err != nil {
		metrics.MutationsTotal.WithLabelValues("register", "error").Inc()
		return err
	}

	metrics.MutationsTotal.WithLabelValues("register", "success").Inc()
	return nil
}

// ApplyScoreDelta atomically applies delta to a participant's score and
// notifies the change notifier with the result. The returned score is the
// post-mutation value; the response does not wait for fan-out completion.
func (g *Gateway) ApplyScoreDelta(ctx context.Context, participantID string, delta float64) (float64, error) {
	if !validParticipantID(participantID) {
		metrics.MutationsTotal.WithLabelValues("delta", "invalid").Inc()
		return 0, apperrors.ValidationError("participantId is required")
	}

	newScore, err := g.store.IncrementScore(ctx, participantID, delta)
	if err != nil {
		metrics.MutationsTotal.WithLabelValues("delta", "error").Inc()
		return 0, err
	}

	metrics.MutationsTotal.WithLabelValues("delta", "success").Inc()

	g.notifier.NotifyScoreChanged(ctx, domain.ChangeEvent{
		ParticipantID: participantID,
		Delta:         delta,
		NewScore:      newScore,
	})

	return newScore, nil
}

func validParticipantID(participantID string) bool {
	return strings.TrimSpace(participantID) != ""
}
