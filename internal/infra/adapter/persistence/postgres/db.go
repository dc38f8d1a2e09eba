package postgres

import (
	"context"
	"database/sql"
)

// DB is the subset of database/sql the repositories use. Both *sql.DB and
// circuitbreaker.DBCircuitBreaker satisfy it, so the worker can put the
// whole persistence layer behind the database circuit breaker.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
