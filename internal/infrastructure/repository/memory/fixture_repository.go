package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ligatr/league-engine/internal/domain/fixture"
)

type FixtureRepository struct {
	mu     sync.RWMutex
	items  map[string]fixture.Fixture
	orders []string
}

func NewFixtureRepository(fixtures []fixture.Fixture) *FixtureRepository {
	items := make(map[string]fixture.Fixture, len(fixtures))
	orders := make([]string, 0, len(fixtures))

	for _, f := range fixtures {
		items[f.ID] = f
		orders = append(orders, f.ID)
	}

	return &FixtureRepository{
		items:  items,
		orders: orders,
	}
}

func (r *FixtureRepository) GetByID(_ context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.items[fixtureID]
	if !ok {
		return fixture.Fixture{}, false, nil
	}

	return f, true, nil
}

func (r *FixtureRepository) ListByLeague(_ context.Context, leagueID string) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, id := range r.orders {
		if f := r.items[id]; f.LeagueID == leagueID {
			out = append(out, f)
		}
	}
	sortFixtures(out)

	return out, nil
}

func (r *FixtureRepository) ListByLeagueAndTeam(_ context.Context, leagueID, teamID string) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, id := range r.orders {
		if f := r.items[id]; f.LeagueID == leagueID && f.Touches(teamID) {
			out = append(out, f)
		}
	}
	sortFixtures(out)

	return out, nil
}

func (r *FixtureRepository) ExistsForLeague(_ context.Context, leagueID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.items {
		if f.LeagueID == leagueID {
			return true, nil
		}
	}

	return false, nil
}

func (r *FixtureRepository) CreateBatch(_ context.Context, items []fixture.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range items {
		if _, exists := r.items[f.ID]; !exists {
			r.orders = append(r.orders, f.ID)
		}
		r.items[f.ID] = f
	}

	return nil
}

func (r *FixtureRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.orders[:0]
	for _, id := range r.orders {
		if r.items[id].LeagueID == leagueID {
			delete(r.items, id)
			continue
		}
		kept = append(kept, id)
	}
	r.orders = kept

	return nil
}

func (r *FixtureRepository) ListScheduledInWindow(_ context.Context, from, to time.Time) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, id := range r.orders {
		f := r.items[id]
		if f.Status != fixture.StatusScheduled {
			continue
		}
		if f.KickoffAt.Before(from) || !f.KickoffAt.Before(to) {
			continue
		}
		out = append(out, f)
	}
	sortFixtures(out)

	return out, nil
}

func (r *FixtureRepository) ListScheduledBefore(_ context.Context, cutoff time.Time, limit int) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, id := range r.orders {
		f := r.items[id]
		if f.Status != fixture.StatusScheduled || !f.KickoffAt.Before(cutoff) {
			continue
		}
		out = append(out, f)
	}
	sortFixtures(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *FixtureRepository) ListRunningStartedBefore(_ context.Context, cutoff time.Time) ([]fixture.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixture.Fixture, 0)
	for _, id := range r.orders {
		f := r.items[id]
		if f.Status != fixture.StatusRunning {
			continue
		}
		if f.StartedAt == nil || !f.StartedAt.Before(cutoff) {
			continue
		}
		out = append(out, f)
	}
	sortFixtures(out)

	return out, nil
}

func (r *FixtureRepository) CountUnfinishedByLeague(_ context.Context, leagueID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, f := range r.items {
		if f.LeagueID == leagueID && fixture.IsUnfinished(f.Status) {
			count++
		}
	}

	return count, nil
}

func (r *FixtureRepository) MarkRunning(_ context.Context, fixtureID string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[fixtureID]
	if !ok {
		return nil
	}
	f.Status = fixture.StatusRunning
	f.StartedAt = &startedAt
	r.items[fixtureID] = f

	return nil
}

func (r *FixtureRepository) MarkPlayed(_ context.Context, fixtureID string, homeScore, awayScore int, endedAt time.Time, replayPath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[fixtureID]
	if !ok {
		return nil
	}
	f.Status = fixture.StatusPlayed
	f.HomeScore = &homeScore
	f.AwayScore = &awayScore
	f.EndedAt = &endedAt
	f.ReplayPath = replayPath
	r.items[fixtureID] = f

	return nil
}

func (r *FixtureRepository) UpdateTeamRef(_ context.Context, fixtureID, fromTeamID, toTeamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.items[fixtureID]
	if !ok {
		return nil
	}
	if f.HomeTeamID == fromTeamID {
		f.HomeTeamID = toTeamID
	}
	if f.AwayTeamID == fromTeamID {
		f.AwayTeamID = toTeamID
	}
	r.items[fixtureID] = f

	return nil
}

func sortFixtures(items []fixture.Fixture) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Round != items[j].Round {
			return items[i].Round < items[j].Round
		}
		return items[i].ID < items[j].ID
	})
}
