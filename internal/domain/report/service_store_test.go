package report_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
	"github.com/xenking/erp-inventory/internal/events"
	"github.com/xenking/erp-inventory/internal/storage/memory"
)

func TestSalesReportUsesOrderPrices(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	products := product.NewService(store.Products())
	orders, err := order.NewService(store, events.Nop{}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)
	svc := report.NewService(store)

	p, err := products.Create(ctx, product.NewProduct{
		SKU: "KB-1", Name: "Keyboard", Price: decimal.RequireFromString("299.00"), StockQuantity: 20,
	})
	require.NoError(t, err)

	o, err := orders.CreateOrder(ctx, order.CreateRequest{
		Customer: order.Customer{Name: "Alice"},
		Items:    []order.Line{{ProductID: p.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	_, err = orders.ChangeStatus(ctx, o.ID, order.StatusCompleted)
	require.NoError(t, err)

	price := decimal.RequireFromString("349.00")
	_, err = products.Update(ctx, p.ID, product.Patch{Price: &price})
	require.NoError(t, err)

	sales, err := svc.SalesReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "897.00", sales.TotalRevenue.StringFixed(2))
	require.Len(t, sales.TopProducts, 1)
	assert.Equal(t, "Keyboard", sales.TopProducts[0].ProductName)
	assert.Equal(t, "897.00", sales.TopProducts[0].Revenue.StringFixed(2))

	inv, err := svc.InventoryReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5933.00", inv.TotalStockValue.StringFixed(2))
}
