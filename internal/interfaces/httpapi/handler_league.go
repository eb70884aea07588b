package httpapi

import (
	"net/http"
	"time"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/timeline"
	"github.com/ligatr/league-engine/internal/usecase"
)

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	item, err := h.leagueService.GetLeague(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "get league failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leagueToDTO(item))
}

func (h *Handler) ListLeagueStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagueStandings")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	rows, err := h.leagueService.ListStandings(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list standings failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]standingDTO, 0, len(rows))
	for position, row := range rows {
		items = append(items, standingToDTO(row, position+1))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListFixturesByLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixturesByLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	fixtures, err := h.leagueService.ListFixtures(ctx, leagueID)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixtures failed", "league_id", leagueID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]fixtureDTO, 0, len(fixtures))
	for _, f := range fixtures {
		items = append(items, fixtureToDTO(f))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetFixtureByLeague(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixtureByLeague")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	matchID := r.PathValue("matchID")
	item, err := h.leagueService.GetFixture(ctx, leagueID, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get fixture failed", "league_id", leagueID, "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) GetMatchTimeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchTimeline")
	defer span.End()

	matchID := r.PathValue("matchID")
	tl, err := h.leagueService.GetMatchTimeline(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match timeline failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, timelineToDTO(tl))
}

type leagueDTO struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Season      int        `json:"season"`
	Capacity    int        `json:"capacity"`
	Timezone    string     `json:"timezone"`
	State       string     `json:"state"`
	Rounds      int        `json:"rounds"`
	MemberCount int        `json:"memberCount"`
	KickoffAt   *time.Time `json:"kickoffAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func leagueToDTO(l league.League) leagueDTO {
	return leagueDTO{
		ID:          l.ID,
		Name:        l.Name,
		Season:      l.Season,
		Capacity:    l.Capacity,
		Timezone:    l.Timezone,
		State:       l.State,
		Rounds:      l.Rounds,
		MemberCount: l.MemberCount,
		KickoffAt:   l.KickoffAt,
		CreatedAt:   l.CreatedAt,
	}
}

type standingDTO struct {
	Position       int    `json:"position"`
	TeamID         string `json:"teamId"`
	TeamName       string `json:"teamName"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

func standingToDTO(row standing.Row, position int) standingDTO {
	return standingDTO{
		Position:       position,
		TeamID:         row.TeamID,
		TeamName:       row.TeamName,
		Played:         row.Played,
		Won:            row.Won,
		Drawn:          row.Drawn,
		Lost:           row.Lost,
		GoalsFor:       row.GoalsFor,
		GoalsAgainst:   row.GoalsAgainst,
		GoalDifference: row.GoalDifference,
		Points:         row.Points,
	}
}

type fixtureDTO struct {
	ID         string     `json:"id"`
	LeagueID   string     `json:"leagueId"`
	Season     int        `json:"season"`
	Round      int        `json:"round"`
	HomeTeamID string     `json:"homeTeamId"`
	AwayTeamID string     `json:"awayTeamId"`
	KickoffAt  time.Time  `json:"kickoffAt"`
	Status     string     `json:"status"`
	HomeScore  *int       `json:"homeScore,omitempty"`
	AwayScore  *int       `json:"awayScore,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	ReplayPath string     `json:"replayPath,omitempty"`
}

func fixtureToDTO(f fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		ID:         f.ID,
		LeagueID:   f.LeagueID,
		Season:     f.Season,
		Round:      f.Round,
		HomeTeamID: f.HomeTeamID,
		AwayTeamID: f.AwayTeamID,
		KickoffAt:  f.KickoffAt,
		Status:     f.Status,
		HomeScore:  f.HomeScore,
		AwayScore:  f.AwayScore,
		StartedAt:  f.StartedAt,
		EndedAt:    f.EndedAt,
		ReplayPath: f.ReplayPath,
	}
}

type timelineDTO struct {
	MatchID    string           `json:"matchId"`
	LeagueID   string           `json:"leagueId"`
	HomeTeamID string           `json:"homeTeamId"`
	AwayTeamID string           `json:"awayTeamId"`
	HomeScore  int              `json:"homeScore"`
	AwayScore  int              `json:"awayScore"`
	Events     []timeline.Event `json:"events"`
}

func timelineToDTO(tl usecase.MatchTimeline) timelineDTO {
	events := tl.Events
	if events == nil {
		events = []timeline.Event{}
	}
	return timelineDTO{
		MatchID:    tl.MatchID,
		LeagueID:   tl.LeagueID,
		HomeTeamID: tl.HomeTeamID,
		AwayTeamID: tl.AwayTeamID,
		HomeScore:  tl.HomeScore,
		AwayScore:  tl.AwayScore,
		Events:     events,
	}
}
