package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, teamID string) (Team, bool, error)
	List(ctx context.Context) ([]Team, error)
	// CreateIfAbsent persists a team only when no record exists yet and
	// reports whether the write happened. Bot rosters rely on this so the
	// first synthesis wins and later calls read it back.
	CreateIfAbsent(ctx context.Context, item Team) (bool, error)
}
