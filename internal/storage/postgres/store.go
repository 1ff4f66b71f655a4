// Package postgres implements the repositories on PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
)

var (
	_ order.TxStore      = (*Store)(nil)
	_ report.Snapshotter = (*Store)(nil)
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store hands out repositories bound to the pool or to a transaction.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store using pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Products returns the catalog repository outside of any transaction.
func (s *Store) Products() product.Repository { return &ProductRepository{db: s.pool} }

// Orders returns the order repository outside of any transaction.
func (s *Store) Orders() order.Repository { return &OrderRepository{db: s.pool} }

// APIKeys returns the API key repository.
func (s *Store) APIKeys() *APIKeyRepository { return &APIKeyRepository{db: s.pool} }

// WithinTx runs fn in a READ COMMITTED transaction. Rows read through
// LockByIDs and Lock stay locked until commit, which serializes competing
// stock checks on the same products. The transaction is rolled back when fn
// fails or ctx is cancelled.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st order.Store) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, txStore{tx: tx})
	})
}

// ReadSnapshot runs fn in a read-only REPEATABLE READ transaction so every
// query inside it sees the same committed state.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, st order.Store) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}
	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(ctx, txStore{tx: tx})
	})
}

type txStore struct {
	tx pgx.Tx
}

func (t txStore) Products() product.Repository { return &ProductRepository{db: t.tx} }

func (t txStore) Orders() order.Repository { return &OrderRepository{db: t.tx} }

// nullIfZero maps the zero "no value" convention of the domain filters to
// SQL NULL.
func nullIfZero[T int | int64](v T) *T {
	if v == 0 {
		return nil
	}
	return &v
}
