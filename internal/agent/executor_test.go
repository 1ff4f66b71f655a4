package agent

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/catalog"
	"github.com/xenking/erp-inventory/internal/domain/apperr"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
	"github.com/xenking/erp-inventory/internal/events"
	"github.com/xenking/erp-inventory/internal/storage/memory"
)

// newLocal returns a backend over an in-memory store holding the default
// catalog.
func newLocal(t *testing.T) *Local {
	t.Helper()
	store := memory.New()
	products := product.NewService(store.Products())
	orders, err := order.NewService(store, events.Nop{}, tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	require.NoError(t, err)

	items, err := catalog.Default()
	require.NoError(t, err)
	_, err = catalog.Load(context.Background(), products, items)
	require.NoError(t, err)

	return &Local{Products: products, Orders: orders, Reports: report.NewService(store)}
}

func productByName(t *testing.T, b Backend, name string) api.Product {
	t.Helper()
	ps, err := b.ListProducts(context.Background(), false)
	require.NoError(t, err)
	for _, p := range ps {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("product %q not found", name)
	return api.Product{}
}

func TestExecutorHandleCreateOrder(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	e := NewExecutor(local)

	res, err := e.Handle(ctx, "Create an order for Acme with 2 laptops and 1 mouse")
	require.NoError(t, err)
	assert.Equal(t, OpCreateOrder, res.Op)

	o, ok := res.Data.(*api.Order)
	require.True(t, ok)
	assert.Equal(t, "Acme", o.CustomerName)
	assert.Equal(t, "12147.00", o.TotalAmount.String())
	assert.Len(t, o.Items, 2)
	assert.Contains(t, res.Message, o.OrderNumber)

	assert.Equal(t, 48, productByName(t, local, "Laptop").StockQuantity)
	assert.Equal(t, 249, productByName(t, local, "Mouse").StockQuantity)
}

func TestExecutorHandleChinese(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	e := NewExecutor(local)

	res, err := e.Handle(ctx, "创建订单，客户：张三，打印机2台")
	require.NoError(t, err)
	o := res.Data.(*api.Order)
	assert.Equal(t, "张三", o.CustomerName)
	assert.Equal(t, 13, productByName(t, local, "Printer").StockQuantity)

	res, err = e.Handle(ctx, "取消订单"+itoa(o.ID))
	require.NoError(t, err)
	assert.Equal(t, OpSetOrderStatus, res.Op)
	assert.Equal(t, "cancelled", res.Data.(*api.Order).Status)
	assert.Equal(t, 15, productByName(t, local, "Printer").StockQuantity)
}

func TestExecutorInsufficientStock(t *testing.T) {
	e := NewExecutor(newLocal(t))

	_, err := e.Handle(context.Background(), "Create an order for Acme with 16 printers")
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
}

func TestExecutorValidation(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(newLocal(t))

	tests := []struct {
		name string
		task Task
	}{
		{"NoCustomer", Task{Op: OpCreateOrder, Items: []Item{{ProductID: 1, Quantity: 1}}}},
		{"NoItems", Task{Op: OpCreateOrder, CustomerName: "X"}},
		{"UnknownProduct", Task{Op: OpCreateOrder, CustomerName: "X", Items: []Item{{ProductName: "Tablet", Quantity: 1}}}},
		{"NoOrderID", Task{Op: OpSetOrderStatus, Status: "completed"}},
		{"NoStatus", Task{Op: OpSetOrderStatus, OrderID: 1}},
		{"DeleteNoOrderID", Task{Op: OpDeleteOrder}},
		{"RestockNoProduct", Task{Op: OpRestock, Quantity: 5}},
		{"RestockNoQuantity", Task{Op: OpRestock, ProductID: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Execute(ctx, tt.task)
			require.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}

	_, err := e.Execute(ctx, Task{})
	require.ErrorIs(t, err, ErrNotUnderstood)
}

func TestExecutorEveryOperation(t *testing.T) {
	ctx := context.Background()
	local := newLocal(t)
	e := NewExecutor(local)

	created, err := e.Execute(ctx, Task{
		Op:           OpCreateOrder,
		CustomerName: "Initech",
		Items:        []Item{{ProductID: productByName(t, local, "Keyboard").ID, Quantity: 4}},
	})
	require.NoError(t, err)
	id := created.Data.(*api.Order).ID

	for _, op := range Operations {
		t.Run(op.String(), func(t *testing.T) {
			task := Task{Op: op}
			switch op {
			case OpCreateOrder:
				task.CustomerName = "Hooli"
				task.Items = []Item{{ProductID: 1, Quantity: 1}}
			case OpSetOrderStatus:
				task.OrderID, task.Status = id, "processing"
			case OpDeleteOrder:
				task.OrderID = id
			case OpRestock:
				task.ProductID, task.Quantity = 1, 5
			}
			res, err := e.Execute(ctx, task)
			require.NoError(t, err)
			assert.Equal(t, op, res.Op)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestExecutorReports(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(newLocal(t))

	res, err := e.Handle(ctx, "inventory report")
	require.NoError(t, err)
	r := res.Data.(*api.InventoryReport)
	assert.Equal(t, 6, r.TotalProducts)
	assert.Empty(t, r.LowStockProducts)

	res, err = e.Handle(ctx, "restock printers by 5")
	require.NoError(t, err)
	assert.Equal(t, 20, res.Data.(*api.Product).StockQuantity)

	res, err = e.Handle(ctx, "sales report")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Data.(*api.SalesReport).TotalOrders)
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
