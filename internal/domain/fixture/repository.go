package fixture

import (
	"context"
	"time"
)

// Repository describes fixture persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Fixture, error)
	ListByLeagueAndTeam(ctx context.Context, leagueID, teamID string) ([]Fixture, error)
	// ExistsForLeague guards one-shot calendar generation.
	ExistsForLeague(ctx context.Context, leagueID string) (bool, error)
	// CreateBatch persists one bounded chunk of fixtures. Callers chunk
	// large calendars; every write is idempotent by fixture id.
	CreateBatch(ctx context.Context, items []Fixture) error
	DeleteByLeague(ctx context.Context, leagueID string) error

	ListScheduledInWindow(ctx context.Context, from, to time.Time) ([]Fixture, error)
	ListScheduledBefore(ctx context.Context, cutoff time.Time, limit int) ([]Fixture, error)
	ListRunningStartedBefore(ctx context.Context, cutoff time.Time) ([]Fixture, error)
	CountUnfinishedByLeague(ctx context.Context, leagueID string) (int, error)

	MarkRunning(ctx context.Context, fixtureID string, startedAt time.Time) error
	MarkPlayed(ctx context.Context, fixtureID string, homeScore, awayScore int, endedAt time.Time, replayPath string) error
	// UpdateTeamRef rewrites one side reference on a fixture; used when a
	// filler seat is handed to a human team or a duplicate seat is demoted.
	UpdateTeamRef(ctx context.Context, fixtureID, fromTeamID, toTeamID string) error
}
