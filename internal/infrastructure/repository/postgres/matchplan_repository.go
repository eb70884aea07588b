package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/domain/matchplan"
	qb "github.com/ligatr/league-engine/internal/platform/querybuilder"
)

const matchPlansTable = "match_plans"

var matchPlanColumns = []string{"match_id", "league_id", "created_at", "plan"}

type MatchPlanRepository struct {
	db *sqlx.DB
}

func NewMatchPlanRepository(db *sqlx.DB) *MatchPlanRepository {
	return &MatchPlanRepository{db: db}
}

func (r *MatchPlanRepository) Get(ctx context.Context, matchID string) (matchplan.Plan, bool, error) {
	query, args, err := qb.Select(matchPlanColumns...).
		From(matchPlansTable).
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return matchplan.Plan{}, false, fmt.Errorf("build get match plan query: %w", err)
	}

	var m matchPlanTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return matchplan.Plan{}, false, nil
		}
		return matchplan.Plan{}, false, fmt.Errorf("get match plan: %w", err)
	}

	plan, err := m.toDomain()
	if err != nil {
		return matchplan.Plan{}, false, err
	}
	return plan, true, nil
}

func (r *MatchPlanRepository) CreateIfAbsent(ctx context.Context, plan matchplan.Plan) (bool, error) {
	m, err := matchPlanModelFromDomain(plan)
	if err != nil {
		return false, err
	}

	query, args, err := qb.InsertModel(matchPlansTable, m, "ON CONFLICT (match_id) DO NOTHING")
	if err != nil {
		return false, fmt.Errorf("build create match plan query: %w", err)
	}

	result, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("create match plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected create match plan: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchPlanRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	if _, err := querierFor(ctx, r.db).ExecContext(ctx,
		"DELETE FROM match_plans WHERE league_id = $1", leagueID); err != nil {
		return fmt.Errorf("delete league match plans: %w", err)
	}
	return nil
}
