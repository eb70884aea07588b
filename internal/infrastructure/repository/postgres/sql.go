package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx, so the
// same repository code runs inside and outside a transaction.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type txContextKey struct{}

func withTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// querierFor picks the ambient transaction when the context carries one.
func querierFor(ctx context.Context, db *sqlx.DB) queryer {
	if tx, ok := ctx.Value(txContextKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx
	}
	return db
}

func inTx(ctx context.Context) bool {
	tx, ok := ctx.Value(txContextKey{}).(*sqlx.Tx)
	return ok && tx != nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isSerializationFailure matches the Postgres error classes a
// serializable transaction throws when it loses a race: 40001
// (serialization_failure) and 40P01 (deadlock_detected).
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}
