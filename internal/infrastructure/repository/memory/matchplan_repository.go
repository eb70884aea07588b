package memory

import (
	"context"
	"sync"

	"github.com/ligatr/league-engine/internal/domain/matchplan"
)

type MatchPlanRepository struct {
	mu    sync.RWMutex
	plans map[string]matchplan.Plan
}

func NewMatchPlanRepository() *MatchPlanRepository {
	return &MatchPlanRepository{
		plans: make(map[string]matchplan.Plan),
	}
}

func (r *MatchPlanRepository) Get(_ context.Context, matchID string) (matchplan.Plan, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plans[matchID]
	return p, ok, nil
}

func (r *MatchPlanRepository) CreateIfAbsent(_ context.Context, plan matchplan.Plan) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plans[plan.MatchID]; exists {
		return false, nil
	}
	r.plans[plan.MatchID] = plan

	return true, nil
}

func (r *MatchPlanRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.plans {
		if p.LeagueID == leagueID {
			delete(r.plans, id)
		}
	}

	return nil
}
