package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/xenking/erp-inventory/internal/domain/order"
)

const orderColumns = `id, order_number, customer_name, customer_email, customer_phone,
	shipping_address, notes, status, total_amount, order_date, updated_at`

const (
	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	lockOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE ($1::text = '' OR status = $1)
		  AND ($2::text = '' OR customer_name ILIKE '%' || $2 || '%')
		ORDER BY id
		LIMIT $3 OFFSET $4`

	listItemsSQL = `SELECT i.id, i.order_id, i.product_id, p.name, i.quantity,
		i.unit_price, i.discount, i.subtotal
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.id`

	nextOrderSequenceSQL = `SELECT nextval('order_number_seq')`

	insertOrderSQL = `INSERT INTO orders
		(order_number, customer_name, customer_email, customer_phone, shipping_address,
		 notes, status, total_amount, order_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	insertItemSQL = `INSERT INTO order_items
		(order_id, product_id, quantity, unit_price, discount, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	setOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Items are
// stored in order_items and removed with their order by ON DELETE CASCADE.
type OrderRepository struct {
	db querier
}

// Get returns an order with its items.
func (r *OrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	return r.one(ctx, getOrderSQL, id)
}

// Lock is Get with a row lock held until the surrounding transaction ends.
func (r *OrderRepository) Lock(ctx context.Context, id int64) (*order.Order, error) {
	return r.one(ctx, lockOrderSQL, id)
}

func (r *OrderRepository) one(ctx context.Context, sql string, id int64) (*order.Order, error) {
	rows, err := r.db.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &order.NotFoundError{OrderID: id}
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	orders := []order.Order{o}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// List returns orders matching f ordered by ID.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, error) {
	rows, err := r.db.Query(ctx, listOrdersSQL, string(f.Status), f.CustomerName, nullIfZero(f.Limit), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.loadItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadItems fills in the items of orders with a single query.
func (r *OrderRepository) loadItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.db.Query(ctx, listItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity,
			&it.UnitPrice, &it.Discount, &it.Subtotal)
		return it, err
	})
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	for _, it := range items {
		o := &orders[index[it.OrderID]]
		o.Items = append(o.Items, it)
	}
	return nil
}

// NextSequence draws the next order number sequence value. Values are never
// reused, even when the drawing transaction rolls back.
func (r *OrderRepository) NextSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, nextOrderSequenceSQL).Scan(&seq); err != nil {
		return 0, fmt.Errorf("drawing order sequence: %w", err)
	}
	return seq, nil
}

// Insert stores o and its items and assigns their IDs. It must run inside a
// transaction so that the order and its items commit together.
func (r *OrderRepository) Insert(ctx context.Context, o *order.Order) error {
	err := r.db.QueryRow(ctx, insertOrderSQL,
		o.Number, o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.ShippingAddress,
		o.Notes, string(o.Status), o.TotalAmount, o.OrderDate, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("inserting order %s: %w", o.Number, err)
	}

	batch := &pgx.Batch{}
	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		batch.Queue(insertItemSQL, o.ID, it.ProductID, it.Quantity, it.UnitPrice, it.Discount, it.Subtotal).
			QueryRow(func(row pgx.Row) error {
				return row.Scan(&it.ID)
			})
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting items of order %s: %w", o.Number, err)
	}
	return nil
}

// SetStatus updates the status of order id.
func (r *OrderRepository) SetStatus(ctx context.Context, id int64, status order.Status, at time.Time) error {
	tag, err := r.db.Exec(ctx, setOrderStatusSQL, id, string(status), at)
	if err != nil {
		return fmt.Errorf("setting status of order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &order.NotFoundError{OrderID: id}
	}
	return nil
}

// Delete removes order id and, by cascade, its items.
func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &order.NotFoundError{OrderID: id}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.Customer.Name, &o.Customer.Email, &o.Customer.Phone,
		&o.Customer.ShippingAddress, &o.Notes, &status, &o.TotalAmount, &o.OrderDate, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	return o, err
}
