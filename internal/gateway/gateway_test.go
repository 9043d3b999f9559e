package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	apperrors "github.com/Saksham1387/realtime-leaderboard/internal/errors"
)

// fakeStore is an in-memory RankingStore with the same atomicity guarantees
// as the real sorted set: every mutation happens under one lock.
type fakeStore struct {
	mu     sync.Mutex
	scores map[string]float64
	err    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{scores: make(map[string]float64)}
}

func (f *fakeStore) Upsert(_ context.Context, id string, initialScore float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, exists := f.scores[id]; !exists {
		f.scores[id] = initialScore
	}
	return nil
}

func (f *fakeStore) IncrementScore(_ context.Context, id string, delta float64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.scores[id] += delta
	return f.scores[id], nil
}

func (f *fakeStore) TopN(_ context.Context, n int) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	snapshot := make(domain.Snapshot, 0, len(f.scores))
	for id, score := range f.scores {
		snapshot = append(snapshot, domain.RankedEntry{ParticipantID: id, Score: score})
	}
	snapshot.Sort()
	if n > 0 && n < len(snapshot) {
		snapshot = snapshot[:n]
	}
	return snapshot, nil
}

func (f *fakeStore) RankOf(_ context.Context, id string) (int64, error) {
	snapshot, err := f.TopN(context.Background(), 0)
	if err != nil {
		return 0, err
	}
	for i, entry := range snapshot {
		if entry.ParticipantID == id {
			return int64(i) + 1, nil
		}
	}
	return 0, domain.ErrParticipantNotFound
}

// recordingNotifier captures every change event it receives.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (r *recordingNotifier) NotifyScoreChanged(_ context.Context, event domain.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) recorded() []domain.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChangeEvent(nil), r.events...)
}

func TestRegisterParticipant_RejectsEmptyID(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	gw := New(store, notifier)

	for _, id := range []string{"", "   ", "\t"} {
		err := gw.RegisterParticipant(context.Background(), id, 0)
		require.Error(t, err)

		var structuredErr *apperrors.Error
		require.ErrorAs(t, err, &structuredErr)
		assert.Equal(t, apperrors.TypeValidation, structuredErr.Type)
	}

	assert.Empty(t, store.scores)
	assert.Empty(t, notifier.recorded())
}

func TestRegisterParticipant_PreservesExistingScore(t *testing.T) {
	store := newFakeStore()
	gw := New(store, &recordingNotifier{})

	require.NoError(t, gw.RegisterParticipant(context.Background(), "alice", 30))
	require.NoError(t, gw.RegisterParticipant(context.Background(), "alice", 999))

	assert.Equal(t, float64(30), store.scores["alice"])
}

func TestRegisterParticipant_DoesNotNotify(t *testing.T) {
	notifier := &recordingNotifier{}
	gw := New(newFakeStore(), notifier)

	require.NoError(t, gw.RegisterParticipant(context.Background(), "alice", 10))

	assert.Empty(t, notifier.recorded())
}

func TestRegisterParticipant_PropagatesStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.err = domain.ErrStoreUnavailable
	gw := New(store, &recordingNotifier{})

	err := gw.RegisterParticipant(context.Background(), "alice", 0)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestApplyScoreDelta_RejectsEmptyID(t *testing.T) {
	notifier := &recordingNotifier{}
	gw := New(newFakeStore(), notifier)

	_, err := gw.ApplyScoreDelta(context.Background(), "", 10)
	require.Error(t, err)

	var structuredErr *apperrors.Error
	require.ErrorAs(t, err, &structuredErr)
	assert.Equal(t, apperrors.TypeValidation, structuredErr.Type)

	// No broadcast may follow a rejected mutation.
	assert.Empty(t, notifier.recorded())
}

func TestApplyScoreDelta_ReturnsNewScoreAndNotifies(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	gw := New(store, notifier)

	require.NoError(t, gw.RegisterParticipant(context.Background(), "a", 5))

	newScore, err := gw.ApplyScoreDelta(context.Background(), "a", 10)
	require.NoError(t, err)
	assert.Equal(t, float64(15), newScore)

	events := notifier.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, domain.ChangeEvent{ParticipantID: "a", Delta: 10, NewScore: 15}, events[0])
}

func TestApplyScoreDelta_CreatesParticipantAtDelta(t *testing.T) {
	store := newFakeStore()
	gw := New(store, &recordingNotifier{})

	newScore, err := gw.ApplyScoreDelta(context.Background(), "newcomer", -3)
	require.NoError(t, err)
	assert.Equal(t, float64(-3), newScore)
}

func TestApplyScoreDelta_StoreFailureDoesNotNotify(t *testing.T) {
	store := newFakeStore()
	store.err = domain.ErrStoreUnavailable
	notifier := &recordingNotifier{}
	gw := New(store, notifier)

	_, err := gw.ApplyScoreDelta(context.Background(), "a", 1)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Empty(t, notifier.recorded())
}

func TestApplyScoreDelta_ConcurrentDeltasSumExactly(t *testing.T) {
	store := newFakeStore()
	gw := New(store, &recordingNotifier{})

	const goroutines = 20
	const deltasPerGoroutine = 50

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range deltasPerGoroutine {
				_, err := gw.ApplyScoreDelta(context.Background(), "a", 1)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(goroutines*deltasPerGoroutine), store.scores["a"])
}

func TestApplyScoreDelta_UnknownStoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("boom")
	gw := New(store, &recordingNotifier{})

	_, err := gw.ApplyScoreDelta(context.Background(), "a", 1)
	assert.Error(t, err)
}
