package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
)

// RankingStore adapts a Redis sorted set to the domain.RankingStore contract.
// Every mutation is a single Redis primitive (ZADD NX, ZINCRBY), never an
// application-level read-modify-write, so concurrent increments can not lose
// updates.
type RankingStore struct {
	rdb *goredis.Client
}

var _ domain.RankingStore = (*RankingStore)(nil)

func NewRankingStore(rdb *goredis.Client) *RankingStore {
	return &RankingStore{rdb: rdb}
}

// Upsert registers a participant with the given score. ZADD NX guarantees
// register-once semantics: an existing participant keeps its score.
func (s *RankingStore) Upsert(ctx context.Context, participantID string, initialScore float64) error {
	err := s.rdb.ZAddNX(ctx, rankingKey, goredis.Z{
		Score:  initialScore,
		Member: participantID,
	}).Err()
	if err != nil {
		return storeError("zadd", err)
	}
	return nil
}

// IncrementScore atomically adds delta to the participant's score via
// ZINCRBY, creating the participant at delta if absent. Returns the new score.
func (s *RankingStore) IncrementScore(ctx context.Context, participantID string, delta float64) (float64, error) {
	newScore, err := s.rdb.ZIncrBy(ctx, rankingKey, delta, participantID).Result()
	if err != nil {
		return 0, storeError("zincrby", err)
	}
	return newScore, nil
}

// TopN returns the n highest-scored participants; n <= 0 returns all.
// ZREVRANGE WITHSCORES is a single range read, so no entry is skipped or
// duplicated by a concurrent mutation mid-scan. Equal scores are re-sorted
// ascending by id so the tie-break does not depend on Redis member ordering.
func (s *RankingStore) TopN(ctx context.Context, n int) (domain.Snapshot, error) {
	stop := int64(-1)
	if n > 0 {
		stop = int64(n) - 1
	}

	members, err := s.rdb.ZRevRangeWithScores(ctx, rankingKey, 0, stop).Result()
	if err != nil {
		return nil, storeError("zrevrange", err)
	}

	snapshot := make(domain.Snapshot, 0, len(members))
	for _, m := range members {
		id, ok := m.Member.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected member type %T in ranking set", m.Member)
		}
		snapshot = append(snapshot, domain.RankedEntry{ParticipantID: id, Score: m.Score})
	}
	snapshot.Sort()

	return snapshot, nil
}

// RankOf returns the 1-based descending rank of a participant. The rank is
// derived from the same single range read snapshots are built from, so it can
// never disagree with the leaderboard ordering on tied scores. ZREVRANK is
// deliberately not used: it orders equal-score members by reverse
// lexicographic id, the opposite of the snapshot tie-break.
func (s *RankingStore) RankOf(ctx context.Context, participantID string) (int64, error) {
	snapshot, err := s.TopN(ctx, 0)
	if err != nil {
		return 0, err
	}
	for i, entry := range snapshot {
		if entry.ParticipantID == participantID {
			return int64(i) + 1, nil
		}
	}
	return 0, domain.ErrParticipantNotFound
}

// storeError tags a failed Redis operation with the store-unavailable
// sentinel so callers can classify it without inspecting go-redis errors.
func storeError(op string, err error) error {
	return fmt.Errorf("%s failed: %w: %w", op, domain.ErrStoreUnavailable, err)
}
