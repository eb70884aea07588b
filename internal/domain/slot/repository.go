package slot

import "context"

// Repository describes seat and membership persistence needs.
type Repository interface {
	ListByLeague(ctx context.Context, leagueID string) ([]Slot, error)
	Get(ctx context.Context, leagueID string, number int) (Slot, bool, error)
	// FindByTeam scans seats across every league; feeds the dedupe sweep.
	FindByTeam(ctx context.Context, teamID string) ([]Slot, error)
	Upsert(ctx context.Context, item Slot) error
	DeleteByLeague(ctx context.Context, leagueID string) error

	GetMembership(ctx context.Context, teamID string) (Membership, bool, error)
	CreateMembership(ctx context.Context, item Membership) error
	DeleteMembership(ctx context.Context, teamID string) error
}
