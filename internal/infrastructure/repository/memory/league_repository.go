package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ligatr/league-engine/internal/domain/league"
)

type LeagueRepository struct {
	mu     sync.RWMutex
	items  map[string]league.League
	orders []string
}

func NewLeagueRepository(leagues []league.League) *LeagueRepository {
	items := make(map[string]league.League, len(leagues))
	orders := make([]string, 0, len(leagues))

	for _, l := range leagues {
		items[l.ID] = l
		orders = append(orders, l.ID)
	}

	return &LeagueRepository{
		items:  items,
		orders: orders,
	}
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[leagueID]
	if !ok {
		return league.League{}, false, nil
	}

	return l, true, nil
}

func (r *LeagueRepository) OldestForming(_ context.Context) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// orders preserves creation order, so the first forming hit wins.
	for _, id := range r.orders {
		if l := r.items[id]; l.State == league.StateForming {
			return l, true, nil
		}
	}

	return league.League{}, false, nil
}

func (r *LeagueRepository) Create(_ context.Context, item league.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		r.orders = append(r.orders, item.ID)
	}
	r.items[item.ID] = item

	return nil
}

func (r *LeagueRepository) UpdateMembership(_ context.Context, leagueID string, memberCount int, state string, kickoffAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.items[leagueID]
	if !ok {
		return nil
	}
	l.MemberCount = memberCount
	l.State = state
	l.KickoffAt = kickoffAt
	r.items[leagueID] = l

	return nil
}

func (r *LeagueRepository) UpdateState(_ context.Context, leagueID string, state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.items[leagueID]
	if !ok {
		return nil
	}
	l.State = state
	r.items[leagueID] = l

	return nil
}

func (r *LeagueRepository) UpdateRounds(_ context.Context, leagueID string, rounds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.items[leagueID]
	if !ok {
		return nil
	}
	l.Rounds = rounds
	r.items[leagueID] = l

	return nil
}
