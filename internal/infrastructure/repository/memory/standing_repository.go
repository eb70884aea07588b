package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ligatr/league-engine/internal/domain/standing"
)

type StandingRepository struct {
	mu   sync.RWMutex
	rows map[string]standing.Row // key: leagueID/teamID
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{
		rows: make(map[string]standing.Row),
	}
}

func standingKey(leagueID, teamID string) string {
	return leagueID + "/" + teamID
}

func (r *StandingRepository) Get(_ context.Context, leagueID, teamID string) (standing.Row, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[standingKey(leagueID, teamID)]
	return row, ok, nil
}

func (r *StandingRepository) ListByLeague(_ context.Context, leagueID string) ([]standing.Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]standing.Row, 0)
	for _, row := range r.rows {
		if row.LeagueID == leagueID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })

	return out, nil
}

func (r *StandingRepository) Upsert(_ context.Context, row standing.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rows[standingKey(row.LeagueID, row.TeamID)] = row

	return nil
}

func (r *StandingRepository) Delete(_ context.Context, leagueID, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rows, standingKey(leagueID, teamID))

	return nil
}

func (r *StandingRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, row := range r.rows {
		if row.LeagueID == leagueID {
			delete(r.rows, key)
		}
	}

	return nil
}
