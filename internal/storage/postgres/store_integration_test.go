//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
	"github.com/xenking/erp-inventory/internal/domain/auth"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
	"github.com/xenking/erp-inventory/internal/events"
	"github.com/xenking/erp-inventory/internal/storage/postgres"
)

func ptr[T any](v T) *T { return &v }

func setupStore(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:alpine",
		tcpostgres.WithDatabase("erp"),
		tcpostgres.WithUsername("erp"),
		tcpostgres.WithPassword("erp"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.RunMigrations(ctx, pool))
	// Applying the schema twice must be harmless.
	require.NoError(t, postgres.RunMigrations(ctx, pool))

	return postgres.NewStore(pool)
}

func newService(t *testing.T, store *postgres.Store) *order.Service {
	t.Helper()
	svc, err := order.NewService(store, events.Nop{}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	return svc
}

func createProduct(t *testing.T, store *postgres.Store, sku string, stock int) *product.Product {
	t.Helper()
	p, err := store.Products().Create(context.Background(), product.NewProduct{
		SKU:           sku,
		Name:          "Product " + sku,
		Category:      "test",
		Price:         decimal.RequireFromString("19.99"),
		Cost:          decimal.RequireFromString("10.00"),
		StockQuantity: stock,
	})
	require.NoError(t, err)
	return p
}

func stockOf(t *testing.T, store *postgres.Store, id int64) int {
	t.Helper()
	p, err := store.Products().Get(context.Background(), id)
	require.NoError(t, err)
	return p.StockQuantity
}

func TestPostgresStore(t *testing.T) {
	store := setupStore(t)
	svc := newService(t, store)
	ctx := context.Background()

	t.Run("ProductConstraints", func(t *testing.T) {
		p := createProduct(t, store, "C-1", 5)
		assert.Equal(t, product.DefaultMinStockLevel, p.MinStockLevel)

		_, err := store.Products().Create(ctx, product.NewProduct{SKU: "C-1", Name: "Other", Price: decimal.NewFromInt(1)})
		var dup *product.DuplicateError
		require.True(t, errors.As(err, &dup), "got %v", err)
		assert.Equal(t, "sku", dup.Field)

		_, err = store.Products().Get(ctx, 999999)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		_, err = store.Products().AdjustStock(ctx, p.ID, product.StockChange{Delta: -6, Reason: product.ReasonOrderCreated})
		var insufficient *product.InsufficientStockError
		require.True(t, errors.As(err, &insufficient), "got %v", err)
		assert.Equal(t, 5, insufficient.Available)

		_, err = store.Products().AdjustStock(ctx, p.ID, product.StockChange{Delta: product.MaxQuantity, Reason: product.ReasonRestock})
		var limit *product.StockLimitError
		require.True(t, errors.As(err, &limit), "got %v", err)
		assert.Equal(t, 5, limit.Stock)
		assert.Equal(t, 5, stockOf(t, store, p.ID))
	})

	t.Run("PriceSnapshot", func(t *testing.T) {
		p := createProduct(t, store, "S-1", 10)
		o, err := svc.CreateOrder(ctx, order.CreateRequest{
			Customer: order.Customer{Name: "X"},
			Items:    []order.Line{{ProductID: p.ID, Quantity: 2, Discount: decimal.RequireFromString("0.1235")}},
		})
		require.NoError(t, err)

		_, err = store.Products().Update(ctx, p.ID, product.Patch{Price: ptr(decimal.RequireFromString("25.00"))})
		require.NoError(t, err)

		got, err := svc.Get(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, "19.99", got.Items[0].UnitPrice.StringFixed(2))
		assert.Equal(t, "0.1235", got.Items[0].Discount.StringFixed(4))
		assert.True(t, got.Items[0].Subtotal.Equal(o.Items[0].Subtotal))
		assert.True(t, got.TotalAmount.Equal(o.TotalAmount))
	})

	t.Run("OrderLifecycle", func(t *testing.T) {
		p := createProduct(t, store, "L-1", 50)

		o, err := svc.CreateOrder(ctx, order.CreateRequest{
			Customer: order.Customer{Name: "X", Email: "x@example.com"},
			Items:    []order.Line{{ProductID: p.ID, Quantity: 10}},
		})
		require.NoError(t, err)
		assert.Equal(t, 40, stockOf(t, store, p.ID))
		assert.Equal(t, "199.90", o.TotalAmount.StringFixed(2))

		got, err := svc.Get(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, p.Name, got.Items[0].ProductName)
		assert.Equal(t, o.Number, got.Number)

		_, err = svc.CreateOrder(ctx, order.CreateRequest{
			Customer: order.Customer{Name: "Y"},
			Items:    []order.Line{{ProductID: p.ID, Quantity: 45}},
		})
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
		assert.Equal(t, 40, stockOf(t, store, p.ID))

		err = store.Products().Delete(ctx, p.ID)
		assert.ErrorIs(t, err, apperr.ErrConflict)

		_, err = svc.ChangeStatus(ctx, o.ID, order.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, 50, stockOf(t, store, p.ID))

		require.NoError(t, svc.DeleteOrder(ctx, o.ID, order.DeleteOptions{}))
		assert.Equal(t, 50, stockOf(t, store, p.ID))

		movements, err := store.Products().Movements(ctx, product.MovementFilter{ProductID: p.ID})
		require.NoError(t, err)
		require.Len(t, movements, 2)
		assert.Equal(t, product.ReasonOrderCancelled, movements[0].Reason)
		assert.Equal(t, 40, movements[0].Before)
		assert.Equal(t, 50, movements[0].After)
	})

	t.Run("AtomicCreate", func(t *testing.T) {
		a := createProduct(t, store, "A-1", 20)
		b := createProduct(t, store, "A-2", 2)

		_, err := svc.CreateOrder(ctx, order.CreateRequest{
			Customer: order.Customer{Name: "Z"},
			Items: []order.Line{
				{ProductID: a.ID, Quantity: 5},
				{ProductID: b.ID, Quantity: 999999},
			},
		})
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
		assert.Equal(t, 20, stockOf(t, store, a.ID))
	})

	t.Run("ConcurrentCreateNoOversell", func(t *testing.T) {
		p := createProduct(t, store, "R-1", 10)

		var (
			wg sync.WaitGroup
			mu sync.Mutex
			ok int
		)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.CreateOrder(ctx, order.CreateRequest{
					Customer: order.Customer{Name: "Race"},
					Items:    []order.Line{{ProductID: p.ID, Quantity: 1}},
				})
				if err == nil {
					mu.Lock()
					ok++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, ok)
		assert.Equal(t, 0, stockOf(t, store, p.ID))
	})

	t.Run("Reports", func(t *testing.T) {
		reports := report.NewService(store)
		sales, err := reports.SalesReport(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, sales.CompletedOrders)
		assert.True(t, sales.TotalRevenue.IsZero())

		inv, err := reports.InventoryReport(ctx)
		require.NoError(t, err)
		assert.Positive(t, inv.TotalProducts)
		assert.Positive(t, inv.OutOfStockCount)
	})

	t.Run("APIKeys", func(t *testing.T) {
		hash := auth.HashKey([]byte("pepper"), "secret")
		require.NoError(t, store.APIKeys().Upsert(ctx, auth.APIKeyInfo{
			ID: "ci", KeyHash: hash, Name: "CI", Scopes: []string{auth.ScopeWrite},
		}))
		info, err := store.APIKeys().FindByHash(ctx, hash)
		require.NoError(t, err)
		assert.True(t, info.HasScope(auth.ScopeWrite))
	})
}
