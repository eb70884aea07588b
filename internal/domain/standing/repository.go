package standing

import "context"

// Repository describes standings persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, leagueID, teamID string) (Row, bool, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Row, error)
	Upsert(ctx context.Context, row Row) error
	Delete(ctx context.Context, leagueID, teamID string) error
	DeleteByLeague(ctx context.Context, leagueID string) error
}
