package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sport_shop/internal/cache"
	"github.com/Skotchmaster/sport_shop/internal/events"
	"github.com/Skotchmaster/sport_shop/internal/metrics"
	"github.com/Skotchmaster/sport_shop/internal/models"
	"github.com/Skotchmaster/sport_shop/internal/principal"
	"github.com/Skotchmaster/sport_shop/internal/repo"
	"github.com/Skotchmaster/sport_shop/internal/service"
	"github.com/Skotchmaster/sport_shop/internal/transport"
	"github.com/Skotchmaster/sport_shop/pkg/logging"
)

type OrderService struct {
	Repo    repo.Store
	Events  events.Publisher
	Cache   cache.ProductCache
	Metrics *metrics.Metrics

	// AllowBackorder lets stock go negative instead of rejecting the order.
	AllowBackorder bool

	Now func() time.Time
}

func New(store repo.Store, pub events.Publisher, pc cache.ProductCache, m *metrics.Metrics) *OrderService {
	if pub == nil {
		pub = events.Nop{}
	}
	if pc == nil {
		pc = cache.Nop{}
	}
	return &OrderService{Repo: store, Events: pub, Cache: pc, Metrics: m}
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func validateCart(req transport.PlaceOrderRequest) error {
	if len(req.OrderItems) == 0 {
		return service.ErrEmptyCart
	}
	for i, it := range req.OrderItems {
		if it.Product == uuid.Nil {
			return fmt.Errorf("%w: order_items[%d].product required", service.ErrValidation, i)
		}
		if it.Qty <= 0 {
			return fmt.Errorf("%w: order_items[%d].qty must be > 0", service.ErrValidation, i)
		}
		if it.Price.IsNegative() {
			return fmt.Errorf("%w: order_items[%d].price must be >= 0", service.ErrValidation, i)
		}
	}
	if req.TaxPrice.IsNegative() || req.ShippingPrice.IsNegative() || req.TotalPrice.IsNegative() {
		return fmt.Errorf("%w: prices must be >= 0", service.ErrValidation)
	}
	return nil
}

// lockOrder returns the distinct product ids of the cart sorted, so concurrent
// orders always take row locks in the same sequence.
func lockOrder(items []transport.OrderItemRequest) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if !slices.Contains(ids, it.Product) {
			ids = append(ids, it.Product)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	return ids
}

// PlaceOrder creates the order header, its shipping address and one line item
// per cart entry, decrementing stock, all in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, p principal.Principal, req transport.PlaceOrderRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.place_order", "user_id", p.ID)

	if err := validateCart(req); err != nil {
		l.Warn("place_order_rejected", "status", 400, "reason", err.Error())
		return nil, err
	}

	var orderID uuid.UUID
	err := s.Repo.WithTransaction(ctx, func(tx repo.Store) error {
		order := &models.Order{
			UserID:        &p.ID,
			PaymentMethod: req.PaymentMethod,
			TaxPrice:      req.TaxPrice,
			ShippingPrice: req.ShippingPrice,
			TotalPrice:    req.TotalPrice,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		addr := &models.ShippingAddress{
			OrderID:       order.ID,
			Address:       req.ShippingAddress.Address,
			City:          req.ShippingAddress.City,
			PostalCode:    req.ShippingAddress.PostalCode,
			Country:       req.ShippingAddress.Country,
			ShippingPrice: req.ShippingPrice,
		}
		if err := tx.CreateShippingAddress(ctx, addr); err != nil {
			return fmt.Errorf("create shipping address: %w", err)
		}

		products := make(map[uuid.UUID]*models.Product, len(req.OrderItems))
		for _, id := range lockOrder(req.OrderItems) {
			product, err := tx.GetProductForUpdate(ctx, id)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", service.ErrProductNotFound, id)
			}
			if err != nil {
				return fmt.Errorf("lock product %s: %w", id, err)
			}
			products[id] = product
		}

		for _, it := range req.OrderItems {
			product := products[it.Product]
			if !s.AllowBackorder && product.CountInStock < it.Qty {
				return fmt.Errorf("%w: %q has %d left, %d requested",
					service.ErrInsufficientStock, product.Name, product.CountInStock, it.Qty)
			}

			item := &models.OrderItem{
				ProductID: &product.ID,
				OrderID:   order.ID,
				Name:      product.Name,
				Qty:       it.Qty,
				Price:     it.Price,
				Image:     product.Image,
			}
			if err := tx.CreateOrderItem(ctx, item); err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
			if err := tx.AdjustStock(ctx, product.ID, -it.Qty); err != nil {
				return fmt.Errorf("adjust stock %s: %w", product.ID, err)
			}
			product.CountInStock -= it.Qty
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			l.Warn("place_order_rejected", "status", 404, "reason", err.Error())
		case errors.Is(err, service.ErrInsufficientStock):
			l.Warn("place_order_rejected", "status", 400, "reason", err.Error())
		default:
			l.Error("place_order_error", "status", 500, "error", err)
		}
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		l.Error("place_order_error", "status", 500, "reason", "cannot reload order", "error", err)
		return nil, err
	}

	s.Metrics.OrderPlaced(len(order.OrderItems))
	s.publish(ctx, order, events.OrderPlaced)

	touched := lockOrder(req.OrderItems)
	if err := s.Cache.Invalidate(ctx, touched...); err != nil {
		l.Warn("cache_invalidate_failed", "error", err)
	}

	l.Info("order_placed", "status", 201, "order_id", order.ID, "items", len(order.OrderItems))
	return order, nil
}

func (s *OrderService) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", service.ErrOrderNotFound, id)
	}
	return order, err
}

// GetOrder returns the order to its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, p principal.Principal, id uuid.UUID) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Owns(order.UserID) {
		logging.FromContext(ctx).Warn("get_order_denied", "status", 403, "order_id", id, "user_id", p.ID)
		return nil, fmt.Errorf("%w: order %s", service.ErrNotAuthorized, id)
	}
	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, p principal.Principal) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, p.ID)
}

func (s *OrderService) ListOrders(ctx context.Context, p principal.Principal) ([]models.Order, error) {
	if !p.IsAdmin {
		return nil, service.ErrNotAuthorized
	}
	return s.Repo.ListOrders(ctx)
}

// MarkOrderPaid sets is_paid once. Repeated calls succeed and keep the first
// paid_at.
func (s *OrderService) MarkOrderPaid(ctx context.Context, p principal.Principal, id uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.mark_paid", "order_id", id)

	order, err := s.GetOrder(ctx, p, id)
	if err != nil {
		return nil, err
	}

	changed, err := s.Repo.MarkPaid(ctx, order.ID, s.now())
	if err != nil {
		l.Error("mark_paid_error", "status", 500, "error", err)
		return nil, err
	}
	if order, err = s.load(ctx, id); err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, order, events.OrderPaid)
		l.Info("order_paid")
	}
	return order, nil
}

func (s *OrderService) MarkOrderDelivered(ctx context.Context, p principal.Principal, id uuid.UUID) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "order.mark_delivered", "order_id", id)

	if !p.IsAdmin {
		l.Warn("mark_delivered_denied", "status", 403, "user_id", p.ID)
		return nil, service.ErrNotAuthorized
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	changed, err := s.Repo.MarkDelivered(ctx, id, s.now())
	if err != nil {
		l.Error("mark_delivered_error", "status", 500, "error", err)
		return nil, err
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.publish(ctx, order, events.OrderDelivered)
		l.Info("order_delivered")
	}
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, order *models.Order, eventType string) {
	items := make([]map[string]any, 0, len(order.OrderItems))
	for _, it := range order.OrderItems {
		items = append(items, map[string]any{
			"product_id": it.ProductID,
			"qty":        it.Qty,
			"price":      it.Price,
		})
	}
	ev := events.New(eventType, map[string]any{
		"order_id":     order.ID,
		"user_id":      order.UserID,
		"total_price":  order.TotalPrice,
		"is_paid":      order.IsPaid,
		"is_delivered": order.IsDelivered,
		"items":        items,
	})

	if err := s.Events.PublishEvent(ctx, events.TopicOrders, order.ID.String(), ev); err != nil {
		s.Metrics.EventPublishFailed(events.TopicOrders)
		logging.FromContext(ctx).Error("kafka_publish_error", "topic", events.TopicOrders, "type", eventType, "error", err)
	}
}
