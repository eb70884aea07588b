package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/domain/standing"
	qb "github.com/ligatr/league-engine/internal/platform/querybuilder"
)

const standingsTable = "standings"

var standingColumns = []string{
	"league_id", "team_id", "team_name", "played", "won", "drawn", "lost",
	"goals_for", "goals_against", "goal_difference", "points",
}

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) Get(ctx context.Context, leagueID, teamID string) (standing.Row, bool, error) {
	query, args, err := qb.Select(standingColumns...).
		From(standingsTable).
		Where(qb.Eq("league_id", leagueID), qb.Eq("team_id", teamID)).
		ToSQL()
	if err != nil {
		return standing.Row{}, false, fmt.Errorf("build get standing query: %w", err)
	}

	var m standingTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return standing.Row{}, false, nil
		}
		return standing.Row{}, false, fmt.Errorf("get standing: %w", err)
	}
	return m.toDomain(), true, nil
}

func (r *StandingRepository) ListByLeague(ctx context.Context, leagueID string) ([]standing.Row, error) {
	query, args, err := qb.Select(standingColumns...).
		From(standingsTable).
		Where(qb.Eq("league_id", leagueID)).
		OrderBy("points DESC", "goal_difference DESC", "goals_for DESC", "team_name ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var models []standingTableModel
	if err := querierFor(ctx, r.db).SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	out := make([]standing.Row, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *StandingRepository) Upsert(ctx context.Context, row standing.Row) error {
	suffix := "ON CONFLICT (league_id, team_id) DO UPDATE SET " +
		"team_name = EXCLUDED.team_name, played = EXCLUDED.played, won = EXCLUDED.won, " +
		"drawn = EXCLUDED.drawn, lost = EXCLUDED.lost, goals_for = EXCLUDED.goals_for, " +
		"goals_against = EXCLUDED.goals_against, goal_difference = EXCLUDED.goal_difference, " +
		"points = EXCLUDED.points"
	query, args, err := qb.InsertModel(standingsTable, standingModelFromDomain(row), suffix)
	if err != nil {
		return fmt.Errorf("build upsert standing query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert standing: %w", err)
	}
	return nil
}

func (r *StandingRepository) Delete(ctx context.Context, leagueID, teamID string) error {
	if _, err := querierFor(ctx, r.db).ExecContext(ctx,
		"DELETE FROM standings WHERE league_id = $1 AND team_id = $2", leagueID, teamID); err != nil {
		return fmt.Errorf("delete standing: %w", err)
	}
	return nil
}

func (r *StandingRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	if _, err := querierFor(ctx, r.db).ExecContext(ctx,
		"DELETE FROM standings WHERE league_id = $1", leagueID); err != nil {
		return fmt.Errorf("delete league standings: %w", err)
	}
	return nil
}
