// Package events publishes domain events emitted after the inventory engine
// commits a change. Events are informational: a failed publish never undoes
// the committed change.
package events

import (
	"context"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Type names an event.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderDeleted       Type = "order.deleted"
	ProductRestocked   Type = "product.restocked"
)

// Event is a committed change to orders or stock.
type Event struct {
	Type           Type
	OrderID        int64
	OrderNumber    string
	Status         string
	PreviousStatus string
	// Total is the order total as a decimal string.
	Total         string
	ProductID     int64
	Quantity      int
	StockRestored bool
	OccurredAt    time.Time
}

// Key partitions events: all events of an order (or of a restocked product)
// land on the same partition.
func (e Event) Key() []byte {
	if e.OrderID != 0 {
		return []byte("order-" + strconv.FormatInt(e.OrderID, 10))
	}
	return []byte("product-" + strconv.FormatInt(e.ProductID, 10))
}

// Encode writes the event as a JSON object, omitting empty fields.
func (e Event) Encode() []byte {
	var w jx.Encoder
	w.Obj(func(w *jx.Encoder) {
		w.Field("type", func(w *jx.Encoder) { w.Str(string(e.Type)) })
		if e.OrderID != 0 {
			w.Field("order_id", func(w *jx.Encoder) { w.Int64(e.OrderID) })
		}
		if e.OrderNumber != "" {
			w.Field("order_number", func(w *jx.Encoder) { w.Str(e.OrderNumber) })
		}
		if e.Status != "" {
			w.Field("status", func(w *jx.Encoder) { w.Str(e.Status) })
		}
		if e.PreviousStatus != "" {
			w.Field("previous_status", func(w *jx.Encoder) { w.Str(e.PreviousStatus) })
		}
		if e.Total != "" {
			w.Field("total", func(w *jx.Encoder) { w.Str(e.Total) })
		}
		if e.ProductID != 0 {
			w.Field("product_id", func(w *jx.Encoder) { w.Int64(e.ProductID) })
		}
		if e.Quantity != 0 {
			w.Field("quantity", func(w *jx.Encoder) { w.Int(e.Quantity) })
		}
		if e.StockRestored {
			w.Field("stock_restored", func(w *jx.Encoder) { w.Bool(true) })
		}
		w.Field("occurred_at", func(w *jx.Encoder) { w.Str(e.OccurredAt.UTC().Format(time.RFC3339Nano)) })
	})
	return w.Bytes()
}

// Decode parses an event produced by Encode. Unknown fields are skipped.
func Decode(data []byte) (Event, error) {
	var e Event
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "type":
			var s string
			s, err = d.Str()
			e.Type = Type(s)
		case "order_id":
			e.OrderID, err = d.Int64()
		case "order_number":
			e.OrderNumber, err = d.Str()
		case "status":
			e.Status, err = d.Str()
		case "previous_status":
			e.PreviousStatus, err = d.Str()
		case "total":
			e.Total, err = d.Str()
		case "product_id":
			e.ProductID, err = d.Int64()
		case "quantity":
			e.Quantity, err = d.Int()
		case "stock_restored":
			e.StockRestored, err = d.Bool()
		case "occurred_at":
			var s string
			if s, err = d.Str(); err == nil {
				e.OccurredAt, err = time.Parse(time.RFC3339Nano, s)
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	if err != nil {
		return Event{}, errors.Wrap(err, "decode event")
	}
	return e, nil
}

// Publisher delivers events to subscribers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
