package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saksham1387/realtime-leaderboard/internal/config"
	"github.com/Saksham1387/realtime-leaderboard/internal/domain"
	apperrors "github.com/Saksham1387/realtime-leaderboard/internal/errors"
)

type fakeGateway struct {
	mu          sync.Mutex
	registered  []string
	registerErr error
	deltaErr    error
	newScore    float64
}

func (g *fakeGateway) RegisterParticipant(_ context.Context, participantID string, _ float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.registerErr != nil {
		return g.registerErr
	}
	g.registered = append(g.registered, participantID)
	return nil
}

func (g *fakeGateway) ApplyScoreDelta(context.Context, string, float64) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deltaErr != nil {
		return 0, g.deltaErr
	}
	return g.newScore, nil
}

type fakeStore struct {
	snapshot domain.Snapshot
	topNErr  error
	rank     int64
	rankErr  error

	lastTopN int
}

func (s *fakeStore) Upsert(context.Context, string, float64) error { return nil }

func (s *fakeStore) IncrementScore(context.Context, string, float64) (float64, error) {
	return 0, nil
}

func (s *fakeStore) TopN(_ context.Context, n int) (domain.Snapshot, error) {
	s.lastTopN = n
	if s.topNErr != nil {
		return nil, s.topNErr
	}
	return s.snapshot, nil
}

func (s *fakeStore) RankOf(context.Context, string) (int64, error) {
	if s.rankErr != nil {
		return 0, s.rankErr
	}
	return s.rank, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                  "test",
		Port:                    "0",
		RedisURL:                "redis://localhost:6379",
		MaxWebSocketConnections: 100,
		MaxConnectionsPerIP:     10,
		ConnectionRatePerSec:    100,
		ConnectionRateBurst:     100,
		MaxLeaderboardLimit:     1000,
	}
}

func newTestServer(gateway *fakeGateway, store *fakeStore) *Server {
	return NewServer(testConfig(), gateway, store, nil, nil)
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func TestRegisterParticipant(t *testing.T) {
	t.Run("valid registration returns 201", func(t *testing.T) {
		gateway := &fakeGateway{}
		s := newTestServer(gateway, &fakeStore{})

		rec := doRequest(s, http.MethodPost, "/api/participants",
			`{"participantId":"alice","initialScore":10}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, []string{"alice"}, gateway.registered)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		gateway := &fakeGateway{}
		s := newTestServer(gateway, &fakeStore{})

		rec := doRequest(s, http.MethodPost, "/api/participants", `{not json`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, gateway.registered)
	})

	t.Run("gateway rejection is surfaced", func(t *testing.T) {
		gateway := &fakeGateway{registerErr: apperrors.ValidationError("participant id must not be empty")}
		s := newTestServer(gateway, &fakeStore{})

		rec := doRequest(s, http.MethodPost, "/api/participants",
			`{"participantId":"","initialScore":0}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store outage returns 503", func(t *testing.T) {
		gateway := &fakeGateway{registerErr: domain.ErrStoreUnavailable}
		s := newTestServer(gateway, &fakeStore{})

		rec := doRequest(s, http.MethodPost, "/api/participants",
			`{"participantId":"alice","initialScore":0}`)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetLeaderboard(t *testing.T) {
	snapshot := domain.Snapshot{
		{ParticipantID: "a", Score: 30},
		{ParticipantID: "b", Score: 10},
	}

	t.Run("no limit returns full ranking", func(t *testing.T) {
		store := &fakeStore{snapshot: snapshot}
		s := newTestServer(&fakeGateway{}, store)

		rec := doRequest(s, http.MethodGet, "/api/leaderboard", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, store.lastTopN)

		var got domain.Snapshot
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, snapshot, got)
	})

	t.Run("limit forwarded to store", func(t *testing.T) {
		store := &fakeStore{snapshot: snapshot[:1]}
		s := newTestServer(&fakeGateway{}, store)

		rec := doRequest(s, http.MethodGet, "/api/leaderboard?limit=1", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, store.lastTopN)
	})

	t.Run("non-numeric limit returns 400", func(t *testing.T) {
		s := newTestServer(&fakeGateway{}, &fakeStore{})
		rec := doRequest(s, http.MethodGet, "/api/leaderboard?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero limit returns 400", func(t *testing.T) {
		s := newTestServer(&fakeGateway{}, &fakeStore{})
		rec := doRequest(s, http.MethodGet, "/api/leaderboard?limit=0", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("limit above maximum returns 400", func(t *testing.T) {
		s := newTestServer(&fakeGateway{}, &fakeStore{})
		rec := doRequest(s, http.MethodGet, "/api/leaderboard?limit=1001", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("store outage returns 503", func(t *testing.T) {
		store := &fakeStore{topNErr: domain.ErrStoreUnavailable}
		s := newTestServer(&fakeGateway{}, store)

		rec := doRequest(s, http.MethodGet, "/api/leaderboard", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetRank(t *testing.T) {
	t.Run("known participant", func(t *testing.T) {
		store := &fakeStore{rank: 3}
		s := newTestServer(&fakeGateway{}, store)

		rec := doRequest(s, http.MethodGet, "/api/rank/alice", "")

		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "alice", got["participantId"])
		assert.Equal(t, float64(3), got["rank"])
	})

	t.Run("unknown participant returns 404", func(t *testing.T) {
		store := &fakeStore{rankErr: domain.ErrParticipantNotFound}
		s := newTestServer(&fakeGateway{}, store)

		rec := doRequest(s, http.MethodGet, "/api/rank/ghost", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestLiveness(t *testing.T) {
	s := newTestServer(&fakeGateway{}, &fakeStore{})

	rec := doRequest(s, http.MethodGet, "/health/live", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
}

func TestVersion(t *testing.T) {
	s := newTestServer(&fakeGateway{}, &fakeStore{})

	rec := doRequest(s, http.MethodGet, "/version", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}
