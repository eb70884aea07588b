package oplock

import "context"

// Repository describes advisory lock and heartbeat persistence.
type Repository interface {
	// Acquire reports true when this call created the lock, false when a
	// previous trigger already holds it.
	Acquire(ctx context.Context, workflow, dayKey string) (bool, error)
	UpsertHeartbeat(ctx context.Context, hb Heartbeat) error
	GetHeartbeat(ctx context.Context, dayKey string) (Heartbeat, bool, error)
}
