package league

import (
	"context"
	"time"
)

// Repository describes league persistence needs from use cases. Mutating
// methods participate in the ambient transaction when called inside a
// txn.Runner closure.
type Repository interface {
	List(ctx context.Context) ([]League, error)
	GetByID(ctx context.Context, leagueID string) (League, bool, error)
	// OldestForming returns the forming league created first, if any.
	OldestForming(ctx context.Context) (League, bool, error)
	Create(ctx context.Context, item League) error
	// UpdateMembership writes the member counter together with the state
	// and kickoff fields decided by the same transaction.
	UpdateMembership(ctx context.Context, leagueID string, memberCount int, state string, kickoffAt *time.Time) error
	UpdateState(ctx context.Context, leagueID string, state string) error
	UpdateRounds(ctx context.Context, leagueID string, rounds int) error
}
