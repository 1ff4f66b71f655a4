package agent

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  parameters `json:"parameters"`
}

type parameters struct {
	Type       string              `json:"type"`
	Properties map[string]property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type property struct {
	Type        string              `json:"type"`
	Description string              `json:"description,omitempty"`
	Enum        []string            `json:"enum,omitempty"`
	Items       *property           `json:"items,omitempty"`
	Properties  map[string]property `json:"properties,omitempty"`
	Required    []string            `json:"required,omitempty"`
}

func function(name, desc string, props map[string]property, required ...string) tool {
	if props == nil {
		props = map[string]property{}
	}
	return tool{
		Type: "function",
		Function: toolFunction{
			Name:        name,
			Description: desc,
			Parameters:  parameters{Type: "object", Properties: props, Required: required},
		},
	}
}

var statusEnum = []string{"pending", "processing", "completed", "cancelled"}

// toolFor describes op as a model tool.
func toolFor(op Operation) tool {
	switch op {
	case OpListProducts:
		return function("get_products", "List products with stock levels.", map[string]property{
			"low_stock_only": {Type: "boolean", Description: "Only products below their minimum stock level"},
		})
	case OpListOrders:
		return function("get_orders", "List orders, newest first.", map[string]property{
			"status": {Type: "string", Enum: statusEnum},
		})
	case OpCreateOrder:
		return function("create_order", "Create an order. Stock is deducted for every item or the order is rejected.",
			map[string]property{
				"customer_name":    {Type: "string"},
				"customer_email":   {Type: "string"},
				"customer_phone":   {Type: "string"},
				"shipping_address": {Type: "string"},
				"items": {
					Type: "array",
					Items: &property{
						Type: "object",
						Properties: map[string]property{
							"product_id": {Type: "integer"},
							"quantity":   {Type: "integer"},
						},
						Required: []string{"product_id", "quantity"},
					},
				},
			}, "customer_name", "items")
	case OpSetOrderStatus:
		return function("update_order_status", "Change the status of an order. Cancelling returns its items to stock.",
			map[string]property{
				"order_id": {Type: "integer"},
				"status":   {Type: "string", Enum: statusEnum},
			}, "order_id", "status")
	case OpDeleteOrder:
		return function("delete_order", "Delete an order. Items of pending or processing orders return to stock.",
			map[string]property{
				"order_id": {Type: "integer"},
			}, "order_id")
	case OpRestock:
		return function("update_stock", "Add quantity units to the stock of a product.", map[string]property{
			"product_id": {Type: "integer"},
			"quantity":   {Type: "integer", Description: "Units to add, positive"},
		}, "product_id", "quantity")
	case OpStockAlerts:
		return function("get_stock_alerts", "List products below their minimum stock level with the shortage.", nil)
	case OpSalesReport:
		return function("get_sales_report", "Order counts by status, revenue of completed orders and top products.", nil)
	case OpInventoryReport:
		return function("get_inventory_report", "Product count, total stock value and low stock products.", nil)
	case OpUnknown:
	}
	return tool{}
}

func tools() []tool {
	out := make([]tool, 0, len(Operations))
	for _, op := range Operations {
		out = append(out, toolFor(op))
	}
	return out
}

func operationByTool(name string) Operation {
	for _, op := range Operations {
		if toolFor(op).Function.Name == name {
			return op
		}
	}
	return OpUnknown
}

// decodeArguments reads tool call arguments into a task. Models send either
// an object or an object encoded as a string, and numbers sometimes quoted.
func decodeArguments(op Operation, raw []byte) (Task, error) {
	t := Task{Op: op}
	if len(raw) == 0 {
		return t, nil
	}
	d := jx.DecodeBytes(raw)
	switch d.Next() {
	case jx.Null:
		return t, nil
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return t, errors.Wrap(err, "arguments")
		}
		if s == "" {
			return t, nil
		}
		d = jx.DecodeStr(s)
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "low_stock_only":
			t.LowStockOnly, err = decodeBool(d)
		case "status":
			t.Status, err = d.Str()
		case "customer_name":
			t.CustomerName, err = d.Str()
		case "customer_email":
			t.CustomerEmail, err = d.Str()
		case "customer_phone":
			t.CustomerPhone, err = d.Str()
		case "shipping_address":
			t.ShippingAddress, err = d.Str()
		case "order_id":
			t.OrderID, err = decodeInt(d)
		case "product_id":
			t.ProductID, err = decodeInt(d)
		case "quantity":
			var q int64
			q, err = decodeInt(d)
			t.Quantity = int(q)
		case "items":
			err = d.Arr(func(d *jx.Decoder) error {
				var it Item
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					var err error
					switch key {
					case "product_id":
						it.ProductID, err = decodeInt(d)
					case "quantity":
						var q int64
						q, err = decodeInt(d)
						it.Quantity = int(q)
					default:
						err = d.Skip()
					}
					return err
				}); err != nil {
					return err
				}
				t.Items = append(t.Items, it)
				return nil
			})
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	if err != nil {
		return t, errors.Wrap(err, "arguments")
	}
	return t, nil
}

func decodeInt(d *jx.Decoder) (int64, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return strconv.ParseInt(s, 10, 64)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		if n.IsInt() {
			return n.Int64()
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	default:
		return 0, errors.Errorf("expected number, got %s", tt)
	}
}

func decodeBool(d *jx.Decoder) (bool, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return false, err
		}
		return strconv.ParseBool(s)
	case jx.Bool:
		return d.Bool()
	default:
		return false, errors.Errorf("expected bool, got %s", tt)
	}
}
