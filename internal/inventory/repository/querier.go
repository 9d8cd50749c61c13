package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Querier is the subset of sqlx used by the repositories. Both *sqlx.DB and
// *sqlx.Tx satisfy it, so any repository can be bound to a transaction when a
// multi-step write has to commit or roll back as a unit.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}
