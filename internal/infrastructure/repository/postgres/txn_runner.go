package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/platform/logging"
	"github.com/ligatr/league-engine/internal/platform/txn"
)

// TxnRunner executes closures inside serializable Postgres transactions
// and retries the whole closure when the database reports a
// serialization failure or the closure signals txn.ErrConflict.
type TxnRunner struct {
	db     *sqlx.DB
	cfg    txn.RetryConfig
	logger *logging.Logger
}

func NewTxnRunner(db *sqlx.DB, cfg txn.RetryConfig, logger *logging.Logger) *TxnRunner {
	if logger == nil {
		logger = logging.Default()
	}
	return &TxnRunner{
		db:     db,
		cfg:    txn.NormalizeRetryConfig(cfg),
		logger: logger,
	}
}

func (r *TxnRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	// A closure opened inside another closure joins the outer transaction.
	if inTx(ctx) {
		return fn(ctx)
	}

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !txn.IsConflict(err) && !isSerializationFailure(err) {
			return err
		}
		lastErr = err
		r.logger.WarnContext(ctx, "transaction conflict, retrying", "attempt", attempt, "error", err)

		if attempt < r.cfg.MaxAttempts && r.cfg.Backoff > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * r.cfg.Backoff):
			}
		}
	}
	return fmt.Errorf("transaction retries exhausted after %d attempts: %w", r.cfg.MaxAttempts, lastErr)
}

func (r *TxnRunner) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(withTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
