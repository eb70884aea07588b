package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/timeline"
)

// LeagueService is the read side: league listings, standings tables,
// fixture calendars and fabricated match timelines.
type LeagueService struct {
	leagueRepo   league.Repository
	fixtureRepo  fixture.Repository
	standingRepo standing.Repository
}

func NewLeagueService(leagueRepo league.Repository, fixtureRepo fixture.Repository, standingRepo standing.Repository) *LeagueService {
	return &LeagueService{
		leagueRepo:   leagueRepo,
		fixtureRepo:  fixtureRepo,
		standingRepo: standingRepo,
	}
}

func (s *LeagueService) ListLeagues(ctx context.Context) ([]league.League, error) {
	items, err := s.leagueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}
	return items, nil
}

func (s *LeagueService) GetLeague(ctx context.Context, leagueID string) (league.League, error) {
	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return league.League{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	item, exists, err := s.leagueRepo.GetByID(ctx, leagueID)
	if err != nil {
		return league.League{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return league.League{}, fmt.Errorf("%w: league=%s", ErrNotFound, leagueID)
	}
	return item, nil
}

// ListStandings returns the sorted table for one league.
func (s *LeagueService) ListStandings(ctx context.Context, leagueID string) ([]standing.Row, error) {
	if _, err := s.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}

	rows, err := s.standingRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list standings league=%s: %w", leagueID, err)
	}
	standing.Sort(rows)
	return rows, nil
}

func (s *LeagueService) ListFixtures(ctx context.Context, leagueID string) ([]fixture.Fixture, error) {
	if _, err := s.GetLeague(ctx, leagueID); err != nil {
		return nil, err
	}

	items, err := s.fixtureRepo.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures league=%s: %w", leagueID, err)
	}
	return items, nil
}

func (s *LeagueService) GetFixture(ctx context.Context, leagueID, matchID string) (fixture.Fixture, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return fixture.Fixture{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, matchID)
	if err != nil {
		return fixture.Fixture{}, fmt.Errorf("get fixture: %w", err)
	}
	if !exists {
		return fixture.Fixture{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if leagueID != "" && item.LeagueID != leagueID {
		return fixture.Fixture{}, fmt.Errorf("%w: match=%s not in league=%s", ErrNotFound, matchID, leagueID)
	}
	return item, nil
}

// MatchTimeline is the per-match event view. Events are regenerated from
// the match seed, so the response is stable without storing them.
type MatchTimeline struct {
	MatchID    string
	LeagueID   string
	HomeTeamID string
	AwayTeamID string
	HomeScore  int
	AwayScore  int
	Events     []timeline.Event
}

func (s *LeagueService) GetMatchTimeline(ctx context.Context, matchID string) (MatchTimeline, error) {
	item, err := s.GetFixture(ctx, "", matchID)
	if err != nil {
		return MatchTimeline{}, err
	}
	if item.Status != fixture.StatusPlayed || item.HomeScore == nil || item.AwayScore == nil {
		return MatchTimeline{}, fmt.Errorf("%w: match=%s has no final result yet", ErrNotFound, matchID)
	}

	seedKey := fixture.SeedKey(item.LeagueID, item.ID)
	return MatchTimeline{
		MatchID:    item.ID,
		LeagueID:   item.LeagueID,
		HomeTeamID: item.HomeTeamID,
		AwayTeamID: item.AwayTeamID,
		HomeScore:  *item.HomeScore,
		AwayScore:  *item.AwayScore,
		Events:     timeline.Generate(seedKey, *item.HomeScore, *item.AwayScore),
	}, nil
}
