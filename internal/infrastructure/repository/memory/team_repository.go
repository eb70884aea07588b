package memory

import (
	"context"
	"sync"

	"github.com/ligatr/league-engine/internal/domain/team"
)

type TeamRepository struct {
	mu     sync.RWMutex
	items  map[string]team.Team
	orders []string
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	items := make(map[string]team.Team, len(teams))
	orders := make([]string, 0, len(teams))

	for _, t := range teams {
		items[t.ID] = t
		orders = append(orders, t.ID)
	}

	return &TeamRepository{
		items:  items,
		orders: orders,
	}
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}

	return t, true, nil
}

func (r *TeamRepository) List(_ context.Context) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *TeamRepository) CreateIfAbsent(_ context.Context, item team.Team) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return false, nil
	}
	r.items[item.ID] = item
	r.orders = append(r.orders, item.ID)

	return true, nil
}
