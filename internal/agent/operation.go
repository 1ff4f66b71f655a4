// Package agent turns free-text requests into calls of the ERP operations.
//
// Two front ends share one executor: a keyword parser for English and Chinese
// commands, and a tool-calling loop against an Ollama-compatible chat model.
// Both only reach the system through a Backend, never through storage.
package agent

// Operation is one of the fixed set of operations an agent may invoke.
type Operation int

const (
	OpUnknown Operation = iota
	OpCreateOrder
	OpListOrders
	OpSetOrderStatus
	OpDeleteOrder
	OpListProducts
	OpRestock
	OpStockAlerts
	OpSalesReport
	OpInventoryReport
)

// Operations lists every invocable operation.
var Operations = []Operation{
	OpCreateOrder,
	OpListOrders,
	OpSetOrderStatus,
	OpDeleteOrder,
	OpListProducts,
	OpRestock,
	OpStockAlerts,
	OpSalesReport,
	OpInventoryReport,
}

func (op Operation) String() string {
	switch op {
	case OpCreateOrder:
		return "create_order"
	case OpListOrders:
		return "list_orders"
	case OpSetOrderStatus:
		return "set_order_status"
	case OpDeleteOrder:
		return "delete_order"
	case OpListProducts:
		return "list_products"
	case OpRestock:
		return "restock"
	case OpStockAlerts:
		return "stock_alerts"
	case OpSalesReport:
		return "sales_report"
	case OpInventoryReport:
		return "inventory_report"
	default:
		return "unknown"
	}
}

// Item is a requested order line. Either ProductID or ProductName is set.
type Item struct {
	ProductID   int64
	ProductName string
	Quantity    int
}

// Task is a parsed request: an operation and the parameters it needs.
type Task struct {
	Op Operation

	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	Items           []Item

	OrderID int64
	Status  string

	ProductID    int64
	ProductName  string
	Quantity     int
	LowStockOnly bool
}
