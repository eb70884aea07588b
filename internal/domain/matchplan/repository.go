package matchplan

import "context"

// Repository describes match plan persistence. Plans are read-once,
// write-once records keyed by match id.
type Repository interface {
	Get(ctx context.Context, matchID string) (Plan, bool, error)
	// CreateIfAbsent persists the plan unless one already exists and
	// reports whether the write happened.
	CreateIfAbsent(ctx context.Context, plan Plan) (bool, error)
	DeleteByLeague(ctx context.Context, leagueID string) error
}
