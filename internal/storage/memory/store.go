// Package memory implements the catalog, order and API key repositories in
// process memory. It is used by tests and by local runs without PostgreSQL.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xenking/erp-inventory/internal/domain/auth"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
)

var (
	_ order.TxStore      = (*Store)(nil)
	_ report.Snapshotter = (*Store)(nil)
)

// state is one immutable version of the data set. Units of work mutate a
// private clone which replaces the live version on commit.
type state struct {
	products  map[int64]product.Product
	orders    map[int64]order.Order
	movements []product.Movement
	apiKeys   map[string]auth.APIKeyInfo

	lastProductID  int64
	lastOrderID    int64
	lastItemID     int64
	lastMovementID int64
	orderSeq       int64
}

func newState() *state {
	return &state{
		products: make(map[int64]product.Product),
		orders:   make(map[int64]order.Order),
		apiKeys:  make(map[string]auth.APIKeyInfo),
	}
}

func (s *state) clone() *state {
	c := *s
	c.products = make(map[int64]product.Product, len(s.products))
	for id, p := range s.products {
		c.products[id] = p
	}
	c.orders = make(map[int64]order.Order, len(s.orders))
	for id, o := range s.orders {
		c.orders[id] = o
	}
	c.apiKeys = make(map[string]auth.APIKeyInfo, len(s.apiKeys))
	for h, k := range s.apiKeys {
		c.apiKeys[h] = k
	}
	c.movements = s.movements[:len(s.movements):len(s.movements)]
	return &c
}

// Store holds the live state. Writers are serialized by mu; readers load the
// current version without locking and never observe a partial unit of work.
type Store struct {
	mu  sync.Mutex
	cur atomic.Pointer[state]
	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	s := &Store{now: time.Now}
	s.cur.Store(newState())
	return s
}

// Products returns the catalog repository. Each write commits on its own.
func (s *Store) Products() product.Repository { return &productRepo{view{store: s}} }

// Orders returns the order repository. Each write commits on its own.
func (s *Store) Orders() order.Repository { return &orderRepo{view{store: s}} }

// APIKeys returns the API key repository.
func (s *Store) APIKeys() *APIKeyRepository { return &APIKeyRepository{view{store: s}} }

// WithinTx runs fn against a private copy of the data. The copy becomes the
// live state only if fn succeeds and ctx is still alive.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st order.Store) error) error {
	return s.update(ctx, func(st *state) error {
		return fn(ctx, &txStore{store: s, st: st})
	})
}

// ReadSnapshot runs fn against the current version of the data.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, st order.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, &txStore{store: s, st: s.cur.Load(), readOnly: true})
}

func (s *Store) update(ctx context.Context, fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	next := s.cur.Load().clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cur.Store(next)
	return nil
}

// txStore binds repositories to one state version.
type txStore struct {
	store    *Store
	st       *state
	readOnly bool
}

func (t *txStore) Products() product.Repository {
	return &productRepo{t.view()}
}

func (t *txStore) Orders() order.Repository {
	return &orderRepo{t.view()}
}

func (t *txStore) view() view {
	return view{store: t.store, tx: t.st, readOnly: t.readOnly}
}

// view is shared by the repositories: reads come from the bound state or the
// live one, writes go to the bound state or an implicit unit of work.
type view struct {
	store    *Store
	tx       *state
	readOnly bool
}

func (v view) read() *state {
	if v.tx != nil {
		return v.tx
	}
	return v.store.cur.Load()
}

func (v view) write(ctx context.Context, fn func(st *state) error) error {
	if v.readOnly {
		return errReadOnly
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	return v.store.update(ctx, fn)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
