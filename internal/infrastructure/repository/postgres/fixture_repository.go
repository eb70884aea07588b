package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/domain/fixture"
	qb "github.com/ligatr/league-engine/internal/platform/querybuilder"
)

const fixturesTable = "fixtures"

var fixtureColumns = []string{
	"id", "league_id", "season", "round", "home_team_id", "away_team_id",
	"kickoff_at", "status", "home_score", "away_score",
	"started_at", "ended_at", "replay_path",
}

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(qb.Eq("id", fixtureID)).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var m fixtureTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture: %w", err)
	}
	return m.toDomain(), true, nil
}

func (r *FixtureRepository) ListByLeague(ctx context.Context, leagueID string) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("round ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list league fixtures query: %w", err)
	}
	return r.selectFixtures(ctx, query, args, "list league fixtures")
}

func (r *FixtureRepository) ListByLeagueAndTeam(ctx context.Context, leagueID, teamID string) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(
			qb.Eq("league_id", leagueID),
			qb.Expr("(home_team_id = ? OR away_team_id = ?)", teamID, teamID),
		).
		OrderBy("round ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team fixtures query: %w", err)
	}
	return r.selectFixtures(ctx, query, args, "list team fixtures")
}

func (r *FixtureRepository) ExistsForLeague(ctx context.Context, leagueID string) (bool, error) {
	query, args, err := qb.Select("COUNT(1) AS total").
		From(fixturesTable).
		Where(qb.Eq("league_id", leagueID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build count league fixtures query: %w", err)
	}

	var total int
	if err := querierFor(ctx, r.db).GetContext(ctx, &total, query, args...); err != nil {
		return false, fmt.Errorf("count league fixtures: %w", err)
	}
	return total > 0, nil
}

func (r *FixtureRepository) CreateBatch(ctx context.Context, items []fixture.Fixture) error {
	if len(items) == 0 {
		return nil
	}

	builder := qb.InsertInto(fixturesTable).
		Columns("id", "league_id", "season", "round", "home_team_id", "away_team_id", "kickoff_at", "status")
	for _, f := range items {
		m := fixtureInsertFromDomain(f)
		builder.Values(m.ID, m.LeagueID, m.Season, m.Round, m.HomeTeamID, m.AwayTeamID, m.KickoffAt, m.Status)
	}

	query, args, err := builder.Suffix("ON CONFLICT (id) DO NOTHING").ToSQL()
	if err != nil {
		return fmt.Errorf("build create fixtures query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create fixtures: %w", err)
	}
	return nil
}

func (r *FixtureRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	if _, err := querierFor(ctx, r.db).ExecContext(ctx,
		"DELETE FROM fixtures WHERE league_id = $1", leagueID); err != nil {
		return fmt.Errorf("delete league fixtures: %w", err)
	}
	return nil
}

func (r *FixtureRepository) ListScheduledInWindow(ctx context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(
			qb.Eq("status", fixture.StatusScheduled),
			qb.Expr("kickoff_at >= ?", from),
			qb.Expr("kickoff_at < ?", to),
		).
		OrderBy("round ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scheduled window query: %w", err)
	}
	return r.selectFixtures(ctx, query, args, "list scheduled window")
}

func (r *FixtureRepository) ListScheduledBefore(ctx context.Context, cutoff time.Time, limit int) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(
			qb.Eq("status", fixture.StatusScheduled),
			qb.Expr("kickoff_at < ?", cutoff),
		).
		OrderBy("round ASC", "id ASC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scheduled before query: %w", err)
	}
	return r.selectFixtures(ctx, query, args, "list scheduled before")
}

func (r *FixtureRepository) ListRunningStartedBefore(ctx context.Context, cutoff time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select(fixtureColumns...).
		From(fixturesTable).
		Where(
			qb.Eq("status", fixture.StatusRunning),
			qb.Expr("started_at < ?", cutoff),
		).
		OrderBy("round ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list running before query: %w", err)
	}
	return r.selectFixtures(ctx, query, args, "list running before")
}

func (r *FixtureRepository) CountUnfinishedByLeague(ctx context.Context, leagueID string) (int, error) {
	query, args, err := qb.Select("COUNT(1) AS total").
		From(fixturesTable).
		Where(
			qb.Eq("league_id", leagueID),
			qb.In("status", []any{fixture.StatusScheduled, fixture.StatusRunning}),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count unfinished query: %w", err)
	}

	var total int
	if err := querierFor(ctx, r.db).GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count unfinished fixtures: %w", err)
	}
	return total, nil
}

func (r *FixtureRepository) MarkRunning(ctx context.Context, fixtureID string, startedAt time.Time) error {
	query, args, err := qb.Update(fixturesTable).
		Set("status", fixture.StatusRunning).
		Set("started_at", startedAt).
		Where(qb.Eq("id", fixtureID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark running query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark fixture running: %w", err)
	}
	return nil
}

func (r *FixtureRepository) MarkPlayed(ctx context.Context, fixtureID string, homeScore, awayScore int, endedAt time.Time, replayPath string) error {
	query, args, err := qb.Update(fixturesTable).
		Set("status", fixture.StatusPlayed).
		Set("home_score", homeScore).
		Set("away_score", awayScore).
		Set("ended_at", endedAt).
		Set("replay_path", replayPath).
		Where(qb.Eq("id", fixtureID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark played query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark fixture played: %w", err)
	}
	return nil
}

func (r *FixtureRepository) UpdateTeamRef(ctx context.Context, fixtureID, fromTeamID, toTeamID string) error {
	query, args, err := qb.Update(fixturesTable).
		SetExpr("home_team_id", "CASE WHEN home_team_id = ? THEN ? ELSE home_team_id END", fromTeamID, toTeamID).
		SetExpr("away_team_id", "CASE WHEN away_team_id = ? THEN ? ELSE away_team_id END", fromTeamID, toTeamID).
		Where(qb.Eq("id", fixtureID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture team ref query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update fixture team ref: %w", err)
	}
	return nil
}

func (r *FixtureRepository) selectFixtures(ctx context.Context, query string, args []any, op string) ([]fixture.Fixture, error) {
	var models []fixtureTableModel
	if err := querierFor(ctx, r.db).SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]fixture.Fixture, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}
