package shop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/emporia/emporia/internal/core/identity/authz"
	"github.com/emporia/emporia/internal/core/pubsub"
	"github.com/emporia/emporia/internal/core/storage/types"
	"github.com/emporia/emporia/internal/metrics"
	"github.com/emporia/emporia/internal/query"
	"github.com/emporia/emporia/pkg/model"
)

var (
	ErrOrderDelivered = model.Errorf(model.ErrValidation, "you have recieved order")
	ErrInvalidStatus  = model.Errorf(model.ErrValidation, "order status must be one of Processing, Shipped, Delivered")
)

type ShippingInput struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	PinCode string `json:"pinCode" validate:"required"`
	PhoneNo string `json:"phoneNo" validate:"required"`
}

type OrderItemInput struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gte=1"`
	Image    string  `json:"image"`
	Product  string  `json:"product" validate:"required"`
}

type PaymentInput struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// OrderInput is the body of an order creation.
type OrderInput struct {
	ShippingInfo  ShippingInput    `json:"shippingInfo"`
	OrderItems    []OrderItemInput `json:"orderItems" validate:"required,min=1,dive"`
	PaymentInfo   PaymentInput     `json:"paymentInfo"`
	ItemsPrice    float64          `json:"itemsPrice" validate:"gte=0"`
	TaxPrice      float64          `json:"taxPrice" validate:"gte=0"`
	ShippingPrice float64          `json:"shippingPrice" validate:"gte=0"`
	TotalPrice    float64          `json:"totalPrice" validate:"gte=0"`
}

// OrderCustomer is the part of the buyer shown next to an order.
type OrderCustomer struct {
	ID    types.ID `json:"_id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
}

// OrderDetail is an order with its buyer resolved. User is nil when the
// account no longer exists.
type OrderDetail struct {
	*types.Order
	User *OrderCustomer `json:"user"`
}

// OrderListing is one page of the admin order list.
type OrderListing struct {
	TotalAmount   float64        `json:"totalAmount"`
	Orders        []*types.Order `json:"orders"`
	TotalOrders   int64          `json:"totalOrders"`
	ResultPerPage int            `json:"resultPerPage"`
}

type Orders struct {
	orders   types.OrderStore
	products types.ProductStore
	users    types.UserStore
	policy   authz.Engine
	events   eventSink
	resource query.Resource
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrders creates the order service. pub may be nil.
func NewOrders(orders types.OrderStore, products types.ProductStore, users types.UserStore,
	policy authz.Engine, pub pubsub.Publisher, cfg Config) *Orders {
	logger := slog.Default().With("component", "orders")
	return &Orders{
		orders:   orders,
		products: products,
		users:    users,
		policy:   policy,
		events:   eventSink{pub: pub, logger: logger},
		resource: query.OrderResource(cfg.OrdersPerPage),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Orders) Create(ctx context.Context, buyer *types.User, in OrderInput) (*types.Order, error) {
	items := make([]types.OrderItem, 0, len(in.OrderItems))
	for _, it := range in.OrderItems {
		pid, err := primitive.ObjectIDFromHex(it.Product)
		if err != nil {
			return nil, model.Errorf(model.ErrInvalidID, "resource not found. invalid: product")
		}
		items = append(items, types.OrderItem{
			Name:     it.Name,
			Price:    it.Price,
			Quantity: it.Quantity,
			Image:    it.Image,
			Product:  pid,
		})
	}

	o := &types.Order{
		ShippingInfo:  types.ShippingInfo(in.ShippingInfo),
		OrderItems:    items,
		PaymentInfo:   types.PaymentInfo(in.PaymentInfo),
		PaidAt:        s.now().UTC(),
		ItemsPrice:    in.ItemsPrice,
		TaxPrice:      in.TaxPrice,
		ShippingPrice: in.ShippingPrice,
		TotalPrice:    in.TotalPrice,
		OrderStatus:   types.StatusProcessing,
		User:          buyer.ID,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	s.events.publish(ctx, o, "")
	return o, nil
}

// Get returns an order to its buyer or an admin.
func (s *Orders) Get(ctx context.Context, caller *types.User, id string) (*OrderDetail, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &authz.Resource{ID: id, Owner: o.User.Hex()}
	if err := s.policy.Authorize(ctx, authz.ActionOrderRead, AuthRequest(caller), res,
		"Not authorized to view this order"); err != nil {
		return nil, err
	}

	detail := &OrderDetail{Order: o}
	u, err := s.users.Get(ctx, o.User.Hex())
	switch {
	case err == nil:
		detail.User = &OrderCustomer{ID: u.ID, Name: u.Name, Email: u.Email}
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

func (s *Orders) Mine(ctx context.Context, buyer *types.User) ([]*types.Order, error) {
	orders, err := s.orders.ListByUser(ctx, buyer.ID)
	return nonNil(orders), err
}

// List returns one page of all orders with the grand total over every order.
func (s *Orders) List(ctx context.Context, req query.Request) (*OrderListing, error) {
	constraint := query.Build(s.resource, req)
	out := &OrderListing{ResultPerPage: s.resource.PageSize}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.orders.EstimatedCount(gctx)
		out.TotalOrders = n
		return err
	})
	g.Go(func() error {
		total, err := s.orders.TotalAmount(gctx)
		out.TotalAmount = total
		return err
	})
	g.Go(func() error {
		orders, err := s.orders.List(gctx, constraint)
		out.Orders = nonNil(orders)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves an order to status. The change is a compare-and-set on
// the status read, so a repeated Shipped request cannot decrement stock twice.
// Moving to Shipped decrements the stock of every line item atomically; if a
// decrement fails the status and the applied decrements are rolled back.
func (s *Orders) UpdateStatus(ctx context.Context, id, status string) (*types.Order, error) {
	switch status {
	case types.StatusProcessing, types.StatusShipped, types.StatusDelivered:
	default:
		return nil, ErrInvalidStatus
	}

	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.OrderStatus == types.StatusDelivered {
		return nil, ErrOrderDelivered
	}
	if current.OrderStatus == status {
		return current, nil
	}

	from := current.OrderStatus
	updated, err := s.orders.TransitionStatus(ctx, current.ID, from, status, s.now().UTC())
	if err != nil {
		metrics.OrderTransitions.WithLabelValues(status, "error").Inc()
		return nil, err
	}

	if status == types.StatusShipped {
		if err := s.decrementStock(ctx, updated); err != nil {
			if _, rerr := s.orders.TransitionStatus(context.WithoutCancel(ctx), updated.ID, status, from, s.now().UTC()); rerr != nil {
				s.logger.Error("Failed to revert order status", "order_id", id, "status", from, "error", rerr)
			}
			metrics.OrderTransitions.WithLabelValues(status, "error").Inc()
			return nil, err
		}
	}

	metrics.OrderTransitions.WithLabelValues(status, "ok").Inc()
	s.logger.Info("Order status changed", "order_id", id, "from", from, "to", status)
	s.events.publish(ctx, updated, from)
	return updated, nil
}

// decrementStock issues one atomic $inc per line item, concurrently. Items
// whose product no longer exists are skipped. On failure the decrements that
// were applied are added back.
func (s *Orders) decrementStock(ctx context.Context, o *types.Order) error {
	var (
		mu      sync.Mutex
		applied []types.OrderItem
	)

	// Items share no cancellation so each reports its own outcome.
	var g errgroup.Group
	for _, item := range o.OrderItems {
		g.Go(func() error {
			err := s.products.AdjustStock(ctx, item.Product, -item.Quantity)
			if errors.Is(err, model.ErrNotFound) {
				s.logger.Warn("Skipping stock update for missing product", "order_id", o.ID.Hex(), "product_id", item.Product.Hex())
				metrics.StockAdjustments.WithLabelValues("skipped").Inc()
				return nil
			}
			metrics.StockAdjustments.WithLabelValues(metrics.Result(err)).Inc()
			if err != nil {
				return err
			}
			mu.Lock()
			applied = append(applied, item)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		return nil
	}

	rollback := context.WithoutCancel(ctx)
	for _, item := range applied {
		if rerr := s.products.AdjustStock(rollback, item.Product, item.Quantity); rerr != nil {
			s.logger.Error("Failed to restore stock", "order_id", o.ID.Hex(), "product_id", item.Product.Hex(), "quantity", item.Quantity, "error", rerr)
		}
	}
	return err
}

func (s *Orders) Delete(ctx context.Context, id string) error {
	return s.orders.Delete(ctx, id)
}
