package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ligatr/league-engine/internal/domain/slot"
)

type SlotRepository struct {
	mu          sync.RWMutex
	seats       map[string]slot.Slot       // key: leagueID/number
	memberships map[string]slot.Membership // key: teamID
}

func NewSlotRepository() *SlotRepository {
	return &SlotRepository{
		seats:       make(map[string]slot.Slot),
		memberships: make(map[string]slot.Membership),
	}
}

func seatKey(leagueID string, number int) string {
	return fmt.Sprintf("%s/%d", leagueID, number)
}

func (r *SlotRepository) ListByLeague(_ context.Context, leagueID string) ([]slot.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]slot.Slot, 0)
	for _, s := range r.seats {
		if s.LeagueID == leagueID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	return out, nil
}

func (r *SlotRepository) Get(_ context.Context, leagueID string, number int) (slot.Slot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.seats[seatKey(leagueID, number)]
	return s, ok, nil
}

func (r *SlotRepository) FindByTeam(_ context.Context, teamID string) ([]slot.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]slot.Slot, 0)
	for _, s := range r.seats {
		if s.TeamID == teamID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LeagueID != out[j].LeagueID {
			return out[i].LeagueID < out[j].LeagueID
		}
		return out[i].Number < out[j].Number
	})

	return out, nil
}

func (r *SlotRepository) Upsert(_ context.Context, item slot.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seats[seatKey(item.LeagueID, item.Number)] = item

	return nil
}

func (r *SlotRepository) DeleteByLeague(_ context.Context, leagueID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, s := range r.seats {
		if s.LeagueID == leagueID {
			delete(r.seats, key)
		}
	}

	return nil
}

func (r *SlotRepository) GetMembership(_ context.Context, teamID string) (slot.Membership, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.memberships[teamID]
	return m, ok, nil
}

func (r *SlotRepository) CreateMembership(_ context.Context, item slot.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.memberships[item.TeamID] = item

	return nil
}

func (r *SlotRepository) DeleteMembership(_ context.Context, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.memberships, teamID)

	return nil
}
