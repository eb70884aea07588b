package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/team"
	"github.com/ligatr/league-engine/internal/domain/user"
	"github.com/ligatr/league-engine/internal/infrastructure/repository/memory"
	"github.com/ligatr/league-engine/internal/platform/id"
	"github.com/ligatr/league-engine/internal/usecase"
)

type handlerFixture struct {
	router http.Handler
}

func newHandlerFixture(t *testing.T, verifier TokenVerifier, leagues []league.League, fixtures []fixture.Fixture, teams []team.Team) handlerFixture {
	t.Helper()

	leagueRepo := memory.NewLeagueRepository(leagues)
	fixtureRepo := memory.NewFixtureRepository(fixtures)
	standingRepo := memory.NewStandingRepository()
	teamRepo := memory.NewTeamRepository(teams)
	slotRepo := memory.NewSlotRepository()

	leagueService := usecase.NewLeagueService(leagueRepo, fixtureRepo, standingRepo)
	assignmentService := usecase.NewAssignmentService(
		memory.NewTxnRunner(),
		leagueRepo,
		slotRepo,
		standingRepo,
		teamRepo,
		id.NewRandomGenerator(),
		nil,
		usecase.AssignmentConfig{},
		nil,
	)

	handler := NewHandler(leagueService, assignmentService, nil, nil, nil, nil, nil, teamRepo, nil)
	return handlerFixture{
		router: NewRouter(handler, verifier, nil, false, nil, "job-secret"),
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHandlerGetLeague(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fx := newHandlerFixture(t, stubVerifier{}, []league.League{{
		ID:        "league-1",
		Name:      "Division 1",
		Season:    1,
		Capacity:  4,
		Timezone:  "Europe/Istanbul",
		State:     league.StateForming,
		CreatedAt: now,
	}}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leagues/league-1", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["id"].(string); got != "league-1" {
		t.Fatalf("expected league-1, got %v", data["id"])
	}
	if got, _ := data["state"].(string); got != league.StateForming {
		t.Fatalf("expected forming state, got %v", data["state"])
	}
}

func TestHandlerGetLeague_NotFound(t *testing.T) {
	fx := newHandlerFixture(t, stubVerifier{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leagues/ghost", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandlerGetFixture_WrongLeagueIsNotFound(t *testing.T) {
	now := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	fx := newHandlerFixture(t, stubVerifier{}, []league.League{
		{ID: "league-1", Name: "Division 1", Season: 1, Capacity: 4, Timezone: "UTC", State: league.StateActive, CreatedAt: now},
		{ID: "league-2", Name: "Division 2", Season: 1, Capacity: 4, Timezone: "UTC", State: league.StateActive, CreatedAt: now},
	}, []fixture.Fixture{{
		ID:         "match-1",
		LeagueID:   "league-1",
		Season:     1,
		Round:      1,
		HomeTeamID: "team-a",
		AwayTeamID: "team-b",
		KickoffAt:  now,
		Status:     fixture.StatusScheduled,
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/leagues/league-2/fixtures/match-1", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestHandlerCreateAssignment_OwnerSeatsOwnTeam(t *testing.T) {
	verifier := stubVerifier{principal: user.Principal{UserID: "user-1"}}
	fx := newHandlerFixture(t, verifier, nil, nil, []team.Team{
		{ID: "team-1", Name: "Kadikoy FC", OwnerID: "user-1"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", strings.NewReader(`{"teamId":"team-1"}`))
	req.Header.Set("Authorization", "Bearer token-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["league_id"].(string); got == "" {
		t.Fatalf("expected a league id in the assignment result, got %v", data)
	}
}

func TestHandlerCreateAssignment_RepeatReturnsExistingSeat(t *testing.T) {
	verifier := stubVerifier{principal: user.Principal{UserID: "user-1"}}
	fx := newHandlerFixture(t, verifier, nil, nil, []team.Team{
		{ID: "team-1", Name: "Kadikoy FC", OwnerID: "user-1"},
	})

	for attempt, wantStatus := range []int{http.StatusCreated, http.StatusOK} {
		req := httptest.NewRequest(http.MethodPost, "/v1/assignments", strings.NewReader(`{"teamId":"team-1"}`))
		req.Header.Set("Authorization", "Bearer token-1")
		rec := httptest.NewRecorder()
		fx.router.ServeHTTP(rec, req)

		if rec.Code != wantStatus {
			t.Fatalf("attempt %d: expected status %d, got %d: %s", attempt+1, wantStatus, rec.Code, rec.Body.String())
		}
	}
}

func TestHandlerCreateAssignment_ForeignTeamRejected(t *testing.T) {
	verifier := stubVerifier{principal: user.Principal{UserID: "user-2"}}
	fx := newHandlerFixture(t, verifier, nil, nil, []team.Team{
		{ID: "team-1", Name: "Kadikoy FC", OwnerID: "user-1"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", strings.NewReader(`{"teamId":"team-1"}`))
	req.Header.Set("Authorization", "Bearer token-2")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandlerCreateAssignment_OperatorMayAssignAnyTeam(t *testing.T) {
	verifier := stubVerifier{principal: user.Principal{UserID: "ops-1", Roles: []string{user.RoleOperator}}}
	fx := newHandlerFixture(t, verifier, nil, nil, []team.Team{
		{ID: "team-1", Name: "Kadikoy FC", OwnerID: "user-1"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", strings.NewReader(`{"teamId":"team-1"}`))
	req.Header.Set("Authorization", "Bearer ops-token")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerCreateAssignment_MissingTeamID(t *testing.T) {
	verifier := stubVerifier{principal: user.Principal{UserID: "user-1"}}
	fx := newHandlerFixture(t, verifier, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/assignments", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer token-1")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandlerInternalJob_RequiresToken(t *testing.T) {
	fx := newHandlerFixture(t, stubVerifier{}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/assign-all", nil)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestHandlerAssignAllJob(t *testing.T) {
	fx := newHandlerFixture(t, stubVerifier{}, nil, nil, []team.Team{
		{ID: "team-1", Name: "Kadikoy FC", OwnerID: "user-1"},
		{ID: "team-2", Name: "Besiktas Amateur", OwnerID: "user-2"},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/assign-all", nil)
	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if got, _ := data["assigned"].(float64); got != 2 {
		t.Fatalf("expected 2 assigned teams, got %v", data["assigned"])
	}
}

func TestParseBackfillCutoff(t *testing.T) {
	if _, err := parseBackfillCutoff("not-a-date"); err == nil {
		t.Fatal("expected error for malformed cutoff")
	}

	ts, err := parseBackfillCutoff("2026-03-14")
	if err != nil {
		t.Fatalf("parse date cutoff: %v", err)
	}
	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("expected bare date to cover the whole day (cutoff %v), got %v", want, ts)
	}

	ts, err = parseBackfillCutoff("2026-03-14T19:00:00Z")
	if err != nil {
		t.Fatalf("parse RFC3339 cutoff: %v", err)
	}
	if !ts.Equal(time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected RFC3339 cutoff: %v", ts)
	}

	if ts, _ := parseBackfillCutoff(""); !ts.IsZero() {
		t.Fatalf("expected zero time for empty cutoff, got %v", ts)
	}
}
