// Package cache wraps repositories with a read-through TTL cache for the
// public read endpoints. Only wire these decorators into read-only
// services; transactional writers must see the backing store directly.
package cache

import (
	"context"
	"time"

	"github.com/ligatr/league-engine/internal/domain/league"
	"github.com/ligatr/league-engine/internal/domain/standing"
	"github.com/ligatr/league-engine/internal/domain/team"
	basecache "github.com/ligatr/league-engine/internal/platform/cache"
)

type LeagueRepository struct {
	next  league.Repository
	cache *basecache.Store
}

func NewLeagueRepository(next league.Repository, cache *basecache.Store) *LeagueRepository {
	return &LeagueRepository{next: next, cache: cache}
}

func (r *LeagueRepository) List(ctx context.Context) ([]league.League, error) {
	v, err := r.cache.GetOrLoad(ctx, "league:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]league.League(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]league.League)
	return append([]league.League(nil), items...), nil
}

func (r *LeagueRepository) GetByID(ctx context.Context, leagueID string) (league.League, bool, error) {
	key := "league:id:" + leagueID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return cachedLeague{value: item, exists: exists}, nil
	})
	if err != nil {
		return league.League{}, false, err
	}

	cached, _ := v.(cachedLeague)
	return cached.value, cached.exists, nil
}

// OldestForming is an assignment-path read and must never be stale.
func (r *LeagueRepository) OldestForming(ctx context.Context) (league.League, bool, error) {
	return r.next.OldestForming(ctx)
}

func (r *LeagueRepository) Create(ctx context.Context, item league.League) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

func (r *LeagueRepository) UpdateMembership(ctx context.Context, leagueID string, memberCount int, state string, kickoffAt *time.Time) error {
	if err := r.next.UpdateMembership(ctx, leagueID, memberCount, state, kickoffAt); err != nil {
		return err
	}
	r.invalidate(ctx, leagueID)
	return nil
}

func (r *LeagueRepository) UpdateState(ctx context.Context, leagueID string, state string) error {
	if err := r.next.UpdateState(ctx, leagueID, state); err != nil {
		return err
	}
	r.invalidate(ctx, leagueID)
	return nil
}

func (r *LeagueRepository) UpdateRounds(ctx context.Context, leagueID string, rounds int) error {
	if err := r.next.UpdateRounds(ctx, leagueID, rounds); err != nil {
		return err
	}
	r.invalidate(ctx, leagueID)
	return nil
}

func (r *LeagueRepository) invalidate(ctx context.Context, leagueID string) {
	r.cache.Delete(ctx, "league:list")
	r.cache.Delete(ctx, "league:id:"+leagueID)
}

type cachedLeague struct {
	value  league.League
	exists bool
}

type StandingRepository struct {
	next  standing.Repository
	cache *basecache.Store
}

func NewStandingRepository(next standing.Repository, cache *basecache.Store) *StandingRepository {
	return &StandingRepository{next: next, cache: cache}
}

func (r *StandingRepository) Get(ctx context.Context, leagueID, teamID string) (standing.Row, bool, error) {
	return r.next.Get(ctx, leagueID, teamID)
}

func (r *StandingRepository) ListByLeague(ctx context.Context, leagueID string) ([]standing.Row, error) {
	key := "standing:list:" + leagueID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		rows, err := r.next.ListByLeague(ctx, leagueID)
		if err != nil {
			return nil, err
		}
		return append([]standing.Row(nil), rows...), nil
	})
	if err != nil {
		return nil, err
	}

	rows, _ := v.([]standing.Row)
	return append([]standing.Row(nil), rows...), nil
}

func (r *StandingRepository) Upsert(ctx context.Context, row standing.Row) error {
	if err := r.next.Upsert(ctx, row); err != nil {
		return err
	}
	r.cache.Delete(ctx, "standing:list:"+row.LeagueID)
	return nil
}

func (r *StandingRepository) Delete(ctx context.Context, leagueID, teamID string) error {
	if err := r.next.Delete(ctx, leagueID, teamID); err != nil {
		return err
	}
	r.cache.Delete(ctx, "standing:list:"+leagueID)
	return nil
}

func (r *StandingRepository) DeleteByLeague(ctx context.Context, leagueID string) error {
	if err := r.next.DeleteByLeague(ctx, leagueID); err != nil {
		return err
	}
	r.cache.Delete(ctx, "standing:list:"+leagueID)
	return nil
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	key := "team:id:" + teamID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeam{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeam)
	return cached.value, cached.exists, nil
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	return r.next.List(ctx)
}

func (r *TeamRepository) CreateIfAbsent(ctx context.Context, item team.Team) (bool, error) {
	created, err := r.next.CreateIfAbsent(ctx, item)
	if err != nil {
		return false, err
	}
	if created {
		r.cache.Delete(ctx, "team:id:"+item.ID)
	}
	return created, nil
}

type cachedTeam struct {
	value  team.Team
	exists bool
}
