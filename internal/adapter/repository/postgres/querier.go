package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxQuerier is the subset of pgx execution methods the repositories need,
// satisfied by pools, transactions and savepoints alike.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// pgxTxLike additionally opens nested transactions (savepoints).
type pgxTxLike interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
}
