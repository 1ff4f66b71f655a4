package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/events"
)

// Line is a requested order line.
type Line struct {
	ProductID int64
	Quantity  int
	// Discount is a fraction in [0, 1).
	Discount decimal.Decimal
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Customer Customer
	Notes    string
	Items    []Line
}

// DeleteOptions tunes DeleteOrder.
type DeleteOptions struct {
	// RestoreCompleted returns the goods of a completed order to stock. Without
	// it a completed order is removed and stock is left untouched.
	RestoreCompleted bool
}

// DefaultPublishTimeout bounds how long a committed change waits for the
// event publisher.
const DefaultPublishTimeout = 2 * time.Second

// Option configures a Service.
type Option func(*Service)

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *Service) { s.publishTimeout = d }
}

// Service is the order/inventory consistency engine. Every write runs as one
// unit of work, so stock levels and orders always change together.
type Service struct {
	store  TxStore
	events events.Publisher
	now    func() time.Time

	publishTimeout time.Duration

	tracer        trace.Tracer
	ordersCreated metric.Int64Counter
	rejected      metric.Int64Counter
	unitsRestored metric.Int64Counter
}

// NewService creates the engine on top of store.
func NewService(
	store TxStore,
	pub events.Publisher,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
	opts ...Option,
) (*Service, error) {
	meter := mp.Meter("erp/order")

	ordersCreated, err := meter.Int64Counter("erp.orders.created",
		metric.WithDescription("Orders committed"))
	if err != nil {
		return nil, errors.Wrap(err, "orders created counter")
	}
	rejected, err := meter.Int64Counter("erp.orders.rejected",
		metric.WithDescription("Order operations rejected by business rules"))
	if err != nil {
		return nil, errors.Wrap(err, "orders rejected counter")
	}
	unitsRestored, err := meter.Int64Counter("erp.stock.restored_units",
		metric.WithDescription("Units returned to stock by cancellations and deletions"))
	if err != nil {
		return nil, errors.Wrap(err, "restored units counter")
	}

	s := &Service{
		store:          store,
		events:         pub,
		now:            time.Now,
		publishTimeout: DefaultPublishTimeout,
		tracer:         tp.Tracer("erp/order"),
		ordersCreated:  ordersCreated,
		rejected:       rejected,
		unitsRestored:  unitsRestored,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Get returns a single order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.store.Orders().Get(ctx, id)
}

// List returns orders matching f, oldest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, &InvalidStatusError{To: f.Status}
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, apperr.Invalid("pagination", "limit and offset must not be negative")
	}
	return s.store.Orders().List(ctx, f)
}

// CreateOrder validates the request, checks stock for every line and, only if
// all lines can be served, stores the order and deducts stock. Lines naming
// the same product are checked against their combined quantity.
func (s *Service) CreateOrder(ctx context.Context, req CreateRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(attribute.Int("order.lines", len(req.Items))))
	defer func() { s.finish(ctx, span, "create", rerr) }()

	req.Customer.Name = strings.TrimSpace(req.Customer.Name)
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	// Product ids in first-appearance order, with the total requested quantity.
	// Every line is bounded by MaxQuantity, so the sums cannot wrap.
	var ids []int64
	requested := make(map[int64]int, len(req.Items))
	for _, line := range req.Items {
		if _, ok := requested[line.ProductID]; !ok {
			ids = append(ids, line.ProductID)
		}
		requested[line.ProductID] += line.Quantity
		if requested[line.ProductID] > product.MaxQuantity {
			return nil, apperr.Invalid("items", fmt.Sprintf("total quantity of product %d must not exceed %d",
				line.ProductID, product.MaxQuantity))
		}
	}

	var created *Order
	err := s.store.WithinTx(ctx, func(ctx context.Context, st Store) error {
		locked, err := st.Products().LockByIDs(ctx, ids)
		if err != nil {
			return errors.Wrap(err, "lock products")
		}
		byID := make(map[int64]product.Product, len(locked))
		for _, p := range locked {
			byID[p.ID] = p
		}

		for _, id := range ids {
			if _, ok := byID[id]; !ok {
				return &product.NotFoundError{ProductID: id}
			}
		}
		for _, id := range ids {
			p := byID[id]
			if p.StockQuantity < requested[id] {
				return &product.InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Available: p.StockQuantity,
					Requested: requested[id],
				}
			}
		}

		seq, err := st.Orders().NextSequence(ctx)
		if err != nil {
			return errors.Wrap(err, "next order number")
		}
		now := s.now()
		o := &Order{
			Number:    FormatNumber(now, seq),
			Customer:  req.Customer,
			Notes:     req.Notes,
			OrderDate: now,
			Status:    StatusPending,
			UpdatedAt: now,
		}
		for _, line := range req.Items {
			o.Items = append(o.Items, newItem(byID[line.ProductID], line))
		}
		o.TotalAmount = SumSubtotals(o.Items)
		if o.TotalAmount.GreaterThan(product.MaxAmount) {
			return apperr.Invalid("items", "order total must not exceed "+product.MaxAmount.StringFixed(2))
		}

		if err := st.Orders().Insert(ctx, o); err != nil {
			return errors.Wrap(err, "insert order")
		}
		for _, id := range ids {
			if _, err := st.Products().AdjustStock(ctx, id, product.StockChange{
				Delta:   -requested[id],
				Reason:  product.ReasonOrderCreated,
				OrderID: o.ID,
			}); err != nil {
				return errors.Wrapf(err, "deduct stock for product %d", id)
			}
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.ordersCreated.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("order.id", created.ID))
	s.publish(ctx, events.Event{
		Type:        events.OrderCreated,
		OrderID:     created.ID,
		OrderNumber: created.Number,
		Status:      string(created.Status),
		Total:       created.TotalAmount.StringFixed(2),
		OccurredAt:  created.OrderDate,
	})
	return created, nil
}

func validateCreate(req CreateRequest) error {
	if req.Customer.Name == "" {
		return apperr.Invalid("customer_name", "required")
	}
	if len(req.Items) == 0 {
		return apperr.Invalid("items", "at least one item is required")
	}
	one := decimal.NewFromInt(1)
	for i, line := range req.Items {
		if line.ProductID <= 0 {
			return apperr.Invalid("items", fmt.Sprintf("product_id is required for line %d", i+1))
		}
		if line.Quantity <= 0 {
			return apperr.Invalid("items", fmt.Sprintf("quantity must be greater than 0 for product %d", line.ProductID))
		}
		if line.Quantity > product.MaxQuantity {
			return apperr.Invalid("items", fmt.Sprintf("quantity must not exceed %d for product %d",
				product.MaxQuantity, line.ProductID))
		}
		if line.Discount.IsNegative() || line.Discount.GreaterThanOrEqual(one) {
			return apperr.Invalid("items", fmt.Sprintf("discount must be in [0, 1) for product %d", line.ProductID))
		}
		if !line.Discount.Equal(line.Discount.Round(product.DiscountPlaces)) {
			return apperr.Invalid("items", fmt.Sprintf("discount must have at most %d decimal places for product %d",
				product.DiscountPlaces, line.ProductID))
		}
	}
	return nil
}

// ChangeStatus moves an order to status to. Re-applying the current status is
// a no-op. Cancelling a pending or processing order returns its items to
// stock; completed and cancelled orders are terminal.
func (s *Service) ChangeStatus(ctx context.Context, id int64, to Status) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.ChangeStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", string(to)),
	))
	defer func() { s.finish(ctx, span, "change_status", rerr) }()

	if !to.Valid() {
		return nil, &InvalidStatusError{OrderID: id, To: to}
	}

	var (
		result   *Order
		previous Status
		restored int
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, st Store) error {
		o, err := st.Orders().Lock(ctx, id)
		if err != nil {
			return err
		}
		previous = o.Status
		if o.Status == to {
			result = o
			return nil
		}
		if !o.Status.CanTransition(to) {
			return &InvalidStatusError{OrderID: id, From: o.Status, To: to}
		}

		if to == StatusCancelled {
			if restored, err = restoreStock(ctx, st, o, product.ReasonOrderCancelled); err != nil {
				return err
			}
		}

		now := s.now()
		if err := st.Orders().SetStatus(ctx, id, to, now); err != nil {
			return errors.Wrap(err, "set status")
		}
		o.Status = to
		o.UpdatedAt = now
		result = o
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "change order status")
	}

	if previous != to {
		s.unitsRestored.Add(ctx, int64(restored))
		s.publish(ctx, events.Event{
			Type:           events.OrderStatusChanged,
			OrderID:        result.ID,
			OrderNumber:    result.Number,
			Status:         string(to),
			PreviousStatus: string(previous),
			StockRestored:  restored > 0,
			OccurredAt:     result.UpdatedAt,
		})
	}
	return result, nil
}

// DeleteOrder removes an order and its items. Stock held by pending and
// processing orders is restored; cancelled orders were restored when they
// were cancelled; completed orders keep stock as is unless
// opts.RestoreCompleted is set.
func (s *Service) DeleteOrder(ctx context.Context, id int64, opts DeleteOptions) (rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Delete", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.Bool("order.restore_completed", opts.RestoreCompleted),
	))
	defer func() { s.finish(ctx, span, "delete", rerr) }()

	var (
		deleted  *Order
		restored int
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, st Store) error {
		o, err := st.Orders().Lock(ctx, id)
		if err != nil {
			return err
		}
		if o.Status.HoldsStock() || (o.Status == StatusCompleted && opts.RestoreCompleted) {
			if restored, err = restoreStock(ctx, st, o, product.ReasonOrderDeleted); err != nil {
				return err
			}
		}
		if err := st.Orders().Delete(ctx, id); err != nil {
			return errors.Wrap(err, "delete order")
		}
		deleted = o
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "delete order")
	}

	s.unitsRestored.Add(ctx, int64(restored))
	s.publish(ctx, events.Event{
		Type:          events.OrderDeleted,
		OrderID:       deleted.ID,
		OrderNumber:   deleted.Number,
		Status:        string(deleted.Status),
		StockRestored: restored > 0,
		OccurredAt:    s.now(),
	})
	return nil
}

// Restock adds quantity units to a product's stock.
func (s *Service) Restock(ctx context.Context, productID int64, quantity int) (_ *product.Product, rerr error) {
	ctx, span := s.tracer.Start(ctx, "product.Restock", trace.WithAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("product.quantity", quantity),
	))
	defer func() { s.finish(ctx, span, "restock", rerr) }()

	if quantity <= 0 {
		return nil, apperr.Invalid("quantity", "must be greater than 0")
	}
	if quantity > product.MaxQuantity {
		return nil, apperr.Invalid("quantity", fmt.Sprintf("must not exceed %d", product.MaxQuantity))
	}

	var updated *product.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, st Store) error {
		p, err := st.Products().AdjustStock(ctx, productID, product.StockChange{
			Delta:  quantity,
			Reason: product.ReasonRestock,
		})
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "restock")
	}

	s.publish(ctx, events.Event{
		Type:       events.ProductRestocked,
		ProductID:  productID,
		Quantity:   quantity,
		OccurredAt: s.now(),
	})
	return updated, nil
}

// restoreStock returns every item of o to stock and reports the units moved.
func restoreStock(ctx context.Context, st Store, o *Order, reason product.Reason) (int, error) {
	units := 0
	for _, it := range o.Items {
		if _, err := st.Products().AdjustStock(ctx, it.ProductID, product.StockChange{
			Delta:   it.Quantity,
			Reason:  reason,
			OrderID: o.ID,
		}); err != nil {
			return 0, errors.Wrapf(err, "restore stock for product %d", it.ProductID)
		}
		units += it.Quantity
	}
	return units, nil
}

// finish records the outcome of an operation on its span and counters.
func (s *Service) finish(ctx context.Context, span trace.Span, op string, err error) {
	defer span.End()
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if kind := apperr.Kind(err); kind != nil {
		s.rejected.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("reason", kind.Error()),
		))
	}
}

// publish delivers e after its change committed. The request's cancellation
// does not apply; publishTimeout does.
func (s *Service) publish(ctx context.Context, e events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.events.Publish(ctx, e); err != nil {
		zctx.From(ctx).Warn("Failed to publish event",
			zap.String("type", string(e.Type)),
			zap.Int64("order_id", e.OrderID),
			zap.Int64("product_id", e.ProductID),
			zap.Error(err),
		)
	}
}
