package postgres

import (
	"database/sql"
	"time"

	"github.com/ligatr/league-engine/internal/domain/fixture"
)

type fixtureTableModel struct {
	ID         string         `db:"id"`
	LeagueID   string         `db:"league_id"`
	Season     int            `db:"season"`
	Round      int            `db:"round"`
	HomeTeamID string         `db:"home_team_id"`
	AwayTeamID string         `db:"away_team_id"`
	KickoffAt  time.Time      `db:"kickoff_at"`
	Status     string         `db:"status"`
	HomeScore  sql.NullInt64  `db:"home_score"`
	AwayScore  sql.NullInt64  `db:"away_score"`
	StartedAt  *time.Time     `db:"started_at"`
	EndedAt    *time.Time     `db:"ended_at"`
	ReplayPath sql.NullString `db:"replay_path"`
}

func (m fixtureTableModel) toDomain() fixture.Fixture {
	f := fixture.Fixture{
		ID:         m.ID,
		LeagueID:   m.LeagueID,
		Season:     m.Season,
		Round:      m.Round,
		HomeTeamID: m.HomeTeamID,
		AwayTeamID: m.AwayTeamID,
		KickoffAt:  m.KickoffAt,
		Status:     m.Status,
		StartedAt:  m.StartedAt,
		EndedAt:    m.EndedAt,
		ReplayPath: m.ReplayPath.String,
	}
	if m.HomeScore.Valid {
		v := int(m.HomeScore.Int64)
		f.HomeScore = &v
	}
	if m.AwayScore.Valid {
		v := int(m.AwayScore.Int64)
		f.AwayScore = &v
	}
	return f
}

// fixtureInsertModel covers calendar generation writes: the mutable
// result columns stay NULL until dispatch and finalize touch them.
type fixtureInsertModel struct {
	ID         string    `db:"id"`
	LeagueID   string    `db:"league_id"`
	Season     int       `db:"season"`
	Round      int       `db:"round"`
	HomeTeamID string    `db:"home_team_id"`
	AwayTeamID string    `db:"away_team_id"`
	KickoffAt  time.Time `db:"kickoff_at"`
	Status     string    `db:"status"`
}

func fixtureInsertFromDomain(f fixture.Fixture) fixtureInsertModel {
	status := f.Status
	if status == "" {
		status = fixture.StatusScheduled
	}
	return fixtureInsertModel{
		ID:         f.ID,
		LeagueID:   f.LeagueID,
		Season:     f.Season,
		Round:      f.Round,
		HomeTeamID: f.HomeTeamID,
		AwayTeamID: f.AwayTeamID,
		KickoffAt:  f.KickoffAt,
		Status:     status,
	}
}
