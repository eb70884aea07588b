package memory

import (
	"context"
	"sync"
)

// TxnRunner serializes transaction closures behind one mutex. With every
// closure exclusive there are no conflicts to retry; it exists so local
// runs and tests wire the same Runner seam the Postgres build uses.
type TxnRunner struct {
	mu sync.Mutex
}

func NewTxnRunner() *TxnRunner {
	return &TxnRunner{}
}

func (r *TxnRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
