package memory

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
)

func newProduct(t *testing.T, s *Store, sku string, stock int) *product.Product {
	t.Helper()
	p, err := s.Products().Create(context.Background(), product.NewProduct{
		SKU:           sku,
		Name:          "Product " + sku,
		Category:      "test",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

func TestProductCreate(t *testing.T) {
	ctx := context.Background()
	s := New()

	p := newProduct(t, s, "A-1", 5)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, product.DefaultMinStockLevel, p.MinStockLevel)

	_, err := s.Products().Create(ctx, product.NewProduct{SKU: "A-1", Name: "Other", Price: decimal.NewFromInt(1)})
	var dup *product.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "sku", dup.Field)
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = s.Products().Create(ctx, product.NewProduct{SKU: "B-1", Name: "Product A-1", Price: decimal.NewFromInt(1)})
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "name", dup.Field)
}

func TestProductUpdate(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newProduct(t, s, "A-1", 5)
	newProduct(t, s, "B-1", 5)

	price := decimal.RequireFromString("12.50")
	updated, err := s.Products().Update(ctx, p.ID, product.Patch{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, 5, updated.StockQuantity)

	taken := "B-1"
	_, err = s.Products().Update(ctx, p.ID, product.Patch{SKU: &taken})
	assert.ErrorIs(t, err, apperr.ErrAlreadyExists)

	_, err = s.Products().Update(ctx, 42, product.Patch{Price: &price})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAdjustStock(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newProduct(t, s, "A-1", 5)

	got, err := s.Products().AdjustStock(ctx, p.ID, product.StockChange{Delta: -5, Reason: product.ReasonOrderCreated, OrderID: 7})
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)

	_, err = s.Products().AdjustStock(ctx, p.ID, product.StockChange{Delta: -1, Reason: product.ReasonOrderCreated})
	var insufficient *product.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Available)
	assert.Equal(t, 1, insufficient.Requested)

	_, err = s.Products().AdjustStock(ctx, 99, product.StockChange{Delta: 1, Reason: product.ReasonRestock})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	movements, err := s.Products().Movements(ctx, product.MovementFilter{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, product.Movement{
		ID:        1,
		ProductID: p.ID,
		Delta:     -5,
		Before:    5,
		After:     0,
		Reason:    product.ReasonOrderCreated,
		OrderID:   7,
		CreatedAt: movements[0].CreatedAt,
	}, movements[0])
}

func TestAdjustStockLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := newProduct(t, s, "A-1", 5)

	_, err := s.Products().AdjustStock(ctx, p.ID, product.StockChange{Delta: product.MaxQuantity, Reason: product.ReasonRestock})
	var limit *product.StockLimitError
	require.True(t, errors.As(err, &limit))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, 5, limit.Stock)

	got, err := s.Products().AdjustStock(ctx, p.ID, product.StockChange{Delta: product.MaxQuantity - 5, Reason: product.ReasonRestock})
	require.NoError(t, err)
	assert.Equal(t, product.MaxQuantity, got.StockQuantity)
}

func TestWithinTxRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := newProduct(t, s, "A-1", 10)
	b := newProduct(t, s, "B-1", 1)

	err := s.WithinTx(ctx, func(ctx context.Context, st order.Store) error {
		if _, err := st.Products().AdjustStock(ctx, a.ID, product.StockChange{Delta: -3}); err != nil {
			return err
		}
		_, err := st.Products().AdjustStock(ctx, b.ID, product.StockChange{Delta: -2})
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	got, err := s.Products().Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQuantity)

	movements, err := s.Products().Movements(ctx, product.MovementFilter{})
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestWithinTxCancelledContext(t *testing.T) {
	s := New()
	a := newProduct(t, s, "A-1", 10)

	ctx, cancel := context.WithCancel(context.Background())
	err := s.WithinTx(ctx, func(ctx context.Context, st order.Store) error {
		_, err := st.Products().AdjustStock(ctx, a.ID, product.StockChange{Delta: -3})
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)

	got, err := s.Products().Get(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQuantity)
}

func TestReadSnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := newProduct(t, s, "A-1", 10)

	err := s.ReadSnapshot(ctx, func(ctx context.Context, snap order.Store) error {
		_, err := s.Products().AdjustStock(ctx, a.ID, product.StockChange{Delta: 5, Reason: product.ReasonRestock})
		require.NoError(t, err)

		got, err := snap.Products().Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.StockQuantity)

		_, err = snap.Products().AdjustStock(ctx, a.ID, product.StockChange{Delta: 1})
		assert.Error(t, err)
		return nil
	})
	require.NoError(t, err)
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	a := newProduct(t, s, "A-1", 10)

	o := &order.Order{
		Number:   "ORD26100001",
		Customer: order.Customer{Name: "Alice Smith"},
		Status:   order.StatusPending,
		Items: []order.Item{{
			ProductID: a.ID,
			Quantity:  2,
			UnitPrice: a.Price,
			Subtotal:  a.Price.Mul(decimal.NewFromInt(2)),
		}},
	}
	require.NoError(t, s.Orders().Insert(ctx, o))
	assert.Equal(t, int64(1), o.ID)
	assert.Equal(t, o.ID, o.Items[0].OrderID)

	err := s.Products().Delete(ctx, a.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	newName := "Renamed"
	_, err = s.Products().Update(ctx, a.ID, product.Patch{Name: &newName})
	require.NoError(t, err)

	got, err := s.Orders().Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Items[0].ProductName)

	list, err := s.Orders().List(ctx, order.Filter{CustomerName: "alice"})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.Orders().List(ctx, order.Filter{Status: order.StatusCompleted})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, s.Orders().Delete(ctx, o.ID))
	_, err = s.Orders().Get(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, s.Products().Delete(ctx, a.ID))
}

func TestProductListFilters(t *testing.T) {
	ctx := context.Background()
	s := New()
	newProduct(t, s, "A-1", 50)
	newProduct(t, s, "B-1", 3)
	newProduct(t, s, "C-1", 0)

	low, err := s.Products().List(ctx, product.Filter{LowStockOnly: true})
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "B-1", low[0].SKU)

	paged, err := s.Products().List(ctx, product.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "B-1", paged[0].SKU)

	empty, err := s.Products().List(ctx, product.Filter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
