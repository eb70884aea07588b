package simengine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/matchplan"
	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/resilience"
)

func testMatch() (fixture.Fixture, matchplan.Plan) {
	match := fixture.Fixture{
		ID:         "match-1",
		LeagueID:   "league-1",
		Season:     1,
		Round:      3,
		HomeTeamID: "team-a",
		AwayTeamID: "team-b",
		KickoffAt:  time.Date(2026, 3, 14, 16, 0, 0, 0, time.UTC),
		Status:     fixture.StatusRunning,
	}
	plan := matchplan.Plan{
		MatchID:  match.ID,
		LeagueID: match.LeagueID,
		Home:     matchplan.Side{TeamID: "team-a", Name: "Kadikoy FC", Formation: "4-4-2"},
		Away:     matchplan.Side{TeamID: "team-b", Name: "Besiktas Amateur", Formation: "4-3-3"},
	}
	return match, plan
}

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		BaseURL:        srv.URL,
		Token:          "engine-token",
		Timeout:        2 * time.Second,
		MaxRetries:     maxRetries,
		Logger:         logging.NewNop(),
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestDispatchMatch_SubmitsVersionedSpec(t *testing.T) {
	var body atomic.Pointer[map[string]any]
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != simulationsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer engine-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		var decoded map[string]any
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&decoded); err != nil {
			t.Errorf("decode spec: %v", err)
		}
		body.Store(&decoded)
		w.WriteHeader(http.StatusAccepted)
	}, 0)

	match, plan := testMatch()
	if err := client.DispatchMatch(context.Background(), match, plan); err != nil {
		t.Fatalf("dispatch match: %v", err)
	}

	spec := body.Load()
	if spec == nil {
		t.Fatal("spec never reached the engine")
	}
	decoded := *spec
	if got, _ := decoded["version"].(float64); got != 1 {
		t.Fatalf("expected version 1, got %v", decoded["version"])
	}
	if got, _ := decoded["matchId"].(string); got != "match-1" {
		t.Fatalf("unexpected matchId: %v", decoded["matchId"])
	}
	if got, _ := decoded["rngSeed"].(float64); int64(got) != fixture.Seed("league-1", "match-1") {
		t.Fatalf("rngSeed must match the finalizer's seed derivation, got %v", decoded["rngSeed"])
	}
	home, _ := decoded["home"].(map[string]any)
	if got, _ := home["teamId"].(string); got != "team-a" {
		t.Fatalf("unexpected home side: %v", decoded["home"])
	}
}

func TestDispatchMatch_RetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}, 1)

	match, plan := testMatch()
	if err := client.DispatchMatch(context.Background(), match, plan); err != nil {
		t.Fatalf("dispatch match: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected a retry after 503, got %d calls", got)
	}
}

func TestDispatchMatch_PermanentStatusDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}, 3)

	match, plan := testMatch()
	if err := client.DispatchMatch(context.Background(), match, plan); err == nil {
		t.Fatal("expected error for 422 response")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt for a permanent failure, got %d", got)
	}
}
