package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/erp-inventory/internal/api"
)

var testCatalog = []api.Product{
	{ID: 1, Name: "Laptop"},
	{ID: 2, Name: "Desktop Computer"},
	{ID: 3, Name: "Monitor"},
	{ID: 4, Name: "Keyboard"},
	{ID: 5, Name: "Mouse"},
	{ID: 6, Name: "Printer"},
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Operation
	}{
		{"Create an order for Acme with 2 laptops", OpCreateOrder},
		{"place a new order for Bob: 3 mouse", OpCreateOrder},
		{"为客户张三创建订单，笔记本电脑2台", OpCreateOrder},
		{"帮我下个订单，客户是李四，鼠标5个", OpCreateOrder},
		{"list orders", OpListOrders},
		{"show completed orders", OpListOrders},
		{"查询已完成的订单", OpListOrders},
		{"查看一下订单", OpListOrders},
		{"cancel order 3", OpSetOrderStatus},
		{"mark order #7 as completed", OpSetOrderStatus},
		{"把订单5标记为完成", OpSetOrderStatus},
		{"取消订单12", OpSetOrderStatus},
		{"delete order 4", OpDeleteOrder},
		{"删除订单4", OpDeleteOrder},
		{"restock keyboards by 50", OpRestock},
		{"给键盘补货50个", OpRestock},
		{"show products", OpListProducts},
		{"查询库存", OpListProducts},
		{"sales report", OpSalesReport},
		{"查看销售报表", OpSalesReport},
		{"inventory report", OpInventoryReport},
		{"库存统计", OpInventoryReport},
		{"hello there", OpUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestParseCreateOrder(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		customer string
		items    []Item
	}{
		{
			name:     "English",
			text:     "Create an order for Acme with 2 laptops and 10 mouse",
			customer: "Acme",
			items: []Item{
				{ProductID: 1, ProductName: "Laptop", Quantity: 2},
				{ProductID: 5, ProductName: "Mouse", Quantity: 10},
			},
		},
		{
			name:     "QuantityAfterName",
			text:     "new order customer: Globex, printer x 3",
			customer: "Globex",
			items:    []Item{{ProductID: 6, ProductName: "Printer", Quantity: 3}},
		},
		{
			name:     "Chinese",
			text:     "创建订单，客户：张三，笔记本电脑5台，买3个鼠标",
			customer: "张三",
			items: []Item{
				{ProductID: 1, ProductName: "Laptop", Quantity: 5},
				{ProductID: 5, ProductName: "Mouse", Quantity: 3},
			},
		},
		{
			name:     "Company",
			text:     "下订单 华为公司 显示器",
			customer: "华为公司",
			items:    []Item{{ProductID: 3, ProductName: "Monitor", Quantity: 1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := Parse(tt.text, testCatalog)
			require.NoError(t, err)
			assert.Equal(t, OpCreateOrder, task.Op)
			assert.Equal(t, tt.customer, task.CustomerName)
			assert.Equal(t, tt.items, task.Items)
		})
	}
}

func TestParseStatusChange(t *testing.T) {
	tests := []struct {
		text   string
		id     int64
		status string
	}{
		{"cancel order 3", 3, "cancelled"},
		{"mark order #7 as completed", 7, "completed"},
		{"set order 9 to processing", 9, "processing"},
		{"把订单5标记为完成", 5, "completed"},
		{"取消订单号：12", 12, "cancelled"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			task, err := Parse(tt.text, testCatalog)
			require.NoError(t, err)
			assert.Equal(t, OpSetOrderStatus, task.Op)
			assert.Equal(t, tt.id, task.OrderID)
			assert.Equal(t, tt.status, task.Status)
		})
	}
}

func TestParseListOrdersStatus(t *testing.T) {
	task, err := Parse("show pending orders", testCatalog)
	require.NoError(t, err)
	assert.Equal(t, "pending", task.Status)

	task, err = Parse("查询已取消的订单", testCatalog)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", task.Status)

	task, err = Parse("list orders", testCatalog)
	require.NoError(t, err)
	assert.Empty(t, task.Status)
}

func TestParseRestock(t *testing.T) {
	tests := []struct {
		text      string
		productID int64
		quantity  int
	}{
		{"restock keyboards by 50", 4, 50},
		{"restock 20 monitors", 3, 20},
		{"restock product 6 by 15", 6, 15},
		{"给键盘补货50个", 4, 50},
		{"给产品3补货20台", 3, 20},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			task, err := Parse(tt.text, testCatalog)
			require.NoError(t, err)
			assert.Equal(t, OpRestock, task.Op)
			assert.Equal(t, tt.productID, task.ProductID)
			assert.Equal(t, tt.quantity, task.Quantity)
		})
	}
}

func TestParseLowStock(t *testing.T) {
	for _, text := range []string{"show low stock products", "查询库存不足的产品", "库存预警"} {
		task, err := Parse(text, testCatalog)
		require.NoError(t, err, text)
		assert.Equal(t, OpStockAlerts, task.Op, text)
	}
}

func TestParseNotUnderstood(t *testing.T) {
	_, err := Parse("what is the weather", testCatalog)
	require.ErrorIs(t, err, ErrNotUnderstood)
}
