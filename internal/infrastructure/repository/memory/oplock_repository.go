package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ligatr/league-engine/internal/domain/oplock"
)

type OpLockRepository struct {
	mu         sync.Mutex
	locks      map[string]oplock.Lock // key: workflow/dayKey
	heartbeats map[string]oplock.Heartbeat
}

func NewOpLockRepository() *OpLockRepository {
	return &OpLockRepository{
		locks:      make(map[string]oplock.Lock),
		heartbeats: make(map[string]oplock.Heartbeat),
	}
}

func (r *OpLockRepository) Acquire(_ context.Context, workflow, dayKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := workflow + "/" + dayKey
	if _, held := r.locks[key]; held {
		return false, nil
	}
	r.locks[key] = oplock.Lock{
		Workflow:   workflow,
		DayKey:     dayKey,
		AcquiredAt: time.Now().UTC(),
	}

	return true, nil
}

func (r *OpLockRepository) UpsertHeartbeat(_ context.Context, hb oplock.Heartbeat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.heartbeats[hb.DayKey] = hb

	return nil
}

func (r *OpLockRepository) GetHeartbeat(_ context.Context, dayKey string) (oplock.Heartbeat, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hb, ok := r.heartbeats[dayKey]
	return hb, ok, nil
}
