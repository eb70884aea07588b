package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/domain/team"
	qb "github.com/ligatr/league-engine/internal/platform/querybuilder"
)

const teamsTable = "teams"

var teamColumns = []string{
	"id", "name", "owner_id", "is_bot", "rating", "formation", "tactics", "players",
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	query, args, err := qb.Select(teamColumns...).
		From(teamsTable).
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build get team query: %w", err)
	}

	var m teamTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("get team: %w", err)
	}

	t, err := m.toDomain()
	if err != nil {
		return team.Team{}, false, err
	}
	return t, true, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).
		From(teamsTable).
		OrderBy("id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}

	var models []teamTableModel
	if err := querierFor(ctx, r.db).SelectContext(ctx, &models, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]team.Team, 0, len(models))
	for _, m := range models {
		t, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *TeamRepository) CreateIfAbsent(ctx context.Context, item team.Team) (bool, error) {
	m, err := teamModelFromDomain(item)
	if err != nil {
		return false, err
	}

	query, args, err := qb.InsertModel(teamsTable, m, "ON CONFLICT (id) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build create team query: %w", err)
	}

	result, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("create team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected create team: %w", err)
	}
	return affected > 0, nil
}
