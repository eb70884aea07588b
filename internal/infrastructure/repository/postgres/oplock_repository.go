package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ligatr/league-engine/internal/domain/oplock"
	qb "github.com/ligatr/league-engine/internal/platform/querybuilder"
)

const (
	opsLocksTable      = "ops_locks"
	opsHeartbeatsTable = "ops_heartbeats"
)

var heartbeatColumns = []string{
	"day_key", "dispatched_count", "settled_count", "notes", "updated_at",
}

type heartbeatTableModel struct {
	DayKey          string    `db:"day_key"`
	DispatchedCount int       `db:"dispatched_count"`
	SettledCount    int       `db:"settled_count"`
	Notes           string    `db:"notes"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type OpLockRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewOpLockRepository(db *sqlx.DB) *OpLockRepository {
	return &OpLockRepository{db: db, now: time.Now}
}

func (r *OpLockRepository) Acquire(ctx context.Context, workflow, dayKey string) (bool, error) {
	query, args, err := qb.InsertInto(opsLocksTable).
		Columns("workflow", "day_key", "acquired_at").
		Values(workflow, dayKey, r.now().UTC()).
		Suffix("ON CONFLICT (workflow, day_key) DO NOTHING").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build acquire lock query: %w", err)
	}

	result, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected acquire lock: %w", err)
	}
	return affected > 0, nil
}

func (r *OpLockRepository) UpsertHeartbeat(ctx context.Context, hb oplock.Heartbeat) error {
	m := heartbeatTableModel{
		DayKey:          hb.DayKey,
		DispatchedCount: hb.DispatchedCount,
		SettledCount:    hb.SettledCount,
		Notes:           hb.Notes,
		UpdatedAt:       hb.UpdatedAt,
	}
	suffix := "ON CONFLICT (day_key) DO UPDATE SET " +
		"dispatched_count = EXCLUDED.dispatched_count, settled_count = EXCLUDED.settled_count, " +
		"notes = EXCLUDED.notes, updated_at = EXCLUDED.updated_at"
	query, args, err := qb.InsertModel(opsHeartbeatsTable, m, suffix)
	if err != nil {
		return fmt.Errorf("build upsert heartbeat query: %w", err)
	}
	if _, err := querierFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert heartbeat: %w", err)
	}
	return nil
}

func (r *OpLockRepository) GetHeartbeat(ctx context.Context, dayKey string) (oplock.Heartbeat, bool, error) {
	query, args, err := qb.Select(heartbeatColumns...).
		From(opsHeartbeatsTable).
		Where(qb.Eq("day_key", dayKey)).
		ToSQL()
	if err != nil {
		return oplock.Heartbeat{}, false, fmt.Errorf("build get heartbeat query: %w", err)
	}

	var m heartbeatTableModel
	if err := querierFor(ctx, r.db).GetContext(ctx, &m, query, args...); err != nil {
		if isNotFound(err) {
			return oplock.Heartbeat{}, false, nil
		}
		return oplock.Heartbeat{}, false, fmt.Errorf("get heartbeat: %w", err)
	}
	return oplock.Heartbeat{
		DayKey:          m.DayKey,
		DispatchedCount: m.DispatchedCount,
		SettledCount:    m.SettledCount,
		Notes:           m.Notes,
		UpdatedAt:       m.UpdatedAt,
	}, true, nil
}
