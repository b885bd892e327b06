// Package orders turns a user's cart into an immutable order record.
package orders

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"storefront-backend/internal/apperr"
	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

// Placement is what a successful checkout reports back.
type Placement struct {
	OrderID     string  `json:"order_id"`
	TotalAmount float64 `json:"total_amount"`
}

type Service struct {
	carts  store.Carts
	orders store.Orders
	log    *slog.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(carts store.Carts, orders store.Orders, log *slog.Logger) *Service {
	return &Service{
		carts:  carts,
		orders: orders,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// PlaceOrder snapshots the user's cart into a new PLACED order and then
// empties the cart. The two writes are independent: the order is written
// first, so a failure in between leaves a duplicate-able cart rather than a
// lost order. Prices come from the cart's denormalized line items and stock
// is neither checked nor decremented.
func (s *Service) PlaceOrder(ctx context.Context, uid string) (*Placement, error) {
	cart, err := s.carts.Get(ctx, uid)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Error("fetch cart failed", "user_id", uid, "error", err)
		return nil, apperr.Internal("Error placing order", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		s.log.Warn("cart empty", "user_id", uid)
		return nil, apperr.BadRequest("Cart is empty")
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	order := &models.Order{
		ID:          s.newID(),
		UID:         uid,
		Items:       make([]models.OrderItem, 0, len(cart.Items)),
		TotalAmount: cart.TotalAmount(),
		Status:      models.OrderPlaced,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.log.Error("create order failed", "user_id", uid, "error", err)
		return nil, apperr.Internal("Error placing order", err)
	}

	cart.Items = []models.CartItem{}
	cart.UpdatedAt = now
	if err := s.carts.Put(ctx, cart); err != nil {
		s.log.Error("order created but cart not cleared",
			"user_id", uid, "order_id", order.ID, "error", err)
		return nil, apperr.Internal("Error placing order", err)
	}

	s.log.Info("order placed", "user_id", uid, "order_id", order.ID, "total_amount", order.TotalAmount)
	return &Placement{OrderID: order.ID, TotalAmount: order.TotalAmount}, nil
}

// ListOrders returns the user's orders in storage order.
func (s *Service) ListOrders(ctx context.Context, uid string) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, uid)
	if err != nil {
		s.log.Error("list orders failed", "user_id", uid, "error", err)
		return nil, apperr.Internal("Error fetching orders", err)
	}
	for i := range orders {
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	s.log.Info("retrieved orders", "user_id", uid, "count", len(orders))
	return orders, nil
}

func (s *Service) GetOrder(ctx context.Context, uid, id string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, uid, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Order")
	}
	if err != nil {
		s.log.Error("get order failed", "user_id", uid, "order_id", id, "error", err)
		return nil, apperr.Internal("Error fetching order", err)
	}
	return order, nil
}
