package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/xenking/erp-inventory/internal/domain/order"
)

var _ order.Repository = (*orderRepo)(nil)

type orderRepo struct {
	view
}

func (r *orderRepo) Get(_ context.Context, id int64) (*order.Order, error) {
	st := r.read()
	o, ok := st.orders[id]
	if !ok {
		return nil, &order.NotFoundError{OrderID: id}
	}
	out := resolve(st, o)
	return &out, nil
}

func (r *orderRepo) Lock(ctx context.Context, id int64) (*order.Order, error) {
	return r.Get(ctx, id)
}

func (r *orderRepo) List(_ context.Context, f order.Filter) ([]order.Order, error) {
	st := r.read()
	customer := strings.ToLower(f.CustomerName)
	out := make([]order.Order, 0, len(st.orders))
	for _, o := range st.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if customer != "" && !strings.Contains(strings.ToLower(o.Customer.Name), customer) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	out = page(out, f.Limit, f.Offset)
	for i := range out {
		out[i] = resolve(st, out[i])
	}
	return out, nil
}

func (r *orderRepo) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	err := r.write(ctx, func(st *state) error {
		st.orderSeq++
		seq = st.orderSeq
		return nil
	})
	return seq, err
}

func (r *orderRepo) Insert(ctx context.Context, o *order.Order) error {
	return r.write(ctx, func(st *state) error {
		st.lastOrderID++
		o.ID = st.lastOrderID
		items := make([]order.Item, len(o.Items))
		for i := range o.Items {
			st.lastItemID++
			o.Items[i].ID = st.lastItemID
			o.Items[i].OrderID = o.ID
			items[i] = o.Items[i]
		}
		stored := *o
		stored.Items = items
		st.orders[o.ID] = stored
		return nil
	})
}

func (r *orderRepo) SetStatus(ctx context.Context, id int64, status order.Status, at time.Time) error {
	return r.write(ctx, func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return &order.NotFoundError{OrderID: id}
		}
		o.Status = status
		o.UpdatedAt = at
		st.orders[id] = o
		return nil
	})
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.orders[id]; !ok {
			return &order.NotFoundError{OrderID: id}
		}
		delete(st.orders, id)
		return nil
	})
}

// resolve returns a copy of o safe to hand out, with item product names taken
// from the catalog.
func resolve(st *state, o order.Order) order.Order {
	items := make([]order.Item, len(o.Items))
	copy(items, o.Items)
	for i := range items {
		if p, ok := st.products[items[i].ProductID]; ok {
			items[i].ProductName = p.Name
		}
	}
	o.Items = items
	return o
}
