package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface shared by pgx connections, pools and transactions.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// New creates a Queries instance backed by the given connection or pool.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries provides access to the persisted record store. The schema itself is
// owned by the platform's storage service; this layer only reads and writes
// the records the rebalancing core needs.
type Queries struct {
	db DBTX
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

// GetDBTX returns the underlying database connection interface.
func (q *Queries) GetDBTX() DBTX {
	return q.db
}
