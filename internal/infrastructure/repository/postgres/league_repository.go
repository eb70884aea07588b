package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/domain/league"
	qb "github.com/ligatr/league-engine/internal/platform/querybuilder"
)

const leaguesTable = "leagues"

var leagueColumns = []string{
	"id", "name", "season", "capacity", "timezone",
	"state", "rounds", "member_count", "kickoff_at", "created_at",
}

type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	query, args, err := qb.Select(leagueColumns...).
		From(leaguesTable).
		OrderBy("created_at ASC", "id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leagues query: %w", err)
	}

	var models []leagueTableModel
	if err := querierFor(ctx, r.db).SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list leagues: %w", err)
	}

	out := make([]league.League, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	query, args, err := qb.Select(leagueColumns...).
		From(leaguesTable).
		Where(qb.Eq("id", leagueID)).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build get league query: %w", err)
	}

	var m leagueTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("get league: %w", err)
	}
	return m.toDomain(), true, nil
}

func (r *LeagueRepository) OldestForming(ctx context.Context) (league.League, bool, error) {
	query, args, err := qb.Select(leagueColumns...).
		From(leaguesTable).
		Where(qb.Eq("state", league.StateForming)).
		OrderBy("created_at ASC", "id ASC").
		Limit(1).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build oldest forming league query: %w", err)
	}

	var m leagueTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return league.League{}, false, nil
		}
		return league.League{}, false, fmt.Errorf("oldest forming league: %w", err)
	}
	return m.toDomain(), true, nil
}

func (r *LeagueRepository) Create(ctx context.Context, item league.League) error {
	query, args, err := qb.InsertModel(leaguesTable, leagueModelFromDomain(item), "")
	if err != nil {
		return fmt.Errorf("build create league query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create league: %w", err)
	}
	return nil
}

func (r *LeagueRepository) UpdateMembership(ctx context.Context, leagueID string, memberCount int, state string, kickoffAt *time.Time) error {
	query, args, err := qb.Update(leaguesTable).
		Set("member_count", memberCount).
		Set("state", state).
		Set("kickoff_at", kickoffAt).
		Where(qb.Eq("id", leagueID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update league membership query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update league membership: %w", err)
	}
	return nil
}

func (r *LeagueRepository) UpdateState(ctx context.Context, leagueID string, state string) error {
	query, args, err := qb.Update(leaguesTable).
		Set("state", state).
		Where(qb.Eq("id", leagueID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update league state query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update league state: %w", err)
	}
	return nil
}

func (r *LeagueRepository) UpdateRounds(ctx context.Context, leagueID string, rounds int) error {
	query, args, err := qb.Update(leaguesTable).
		Set("rounds", rounds).
		Where(qb.Eq("id", leagueID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update league rounds query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update league rounds: %w", err)
	}
	return nil
}
