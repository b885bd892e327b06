// Package cart maintains the single cart document each user owns.
//
// Every mutation reads the cart, edits it in memory and writes the whole
// document back. Two concurrent mutations for the same user race and the
// later write wins.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"storefront-backend/internal/apperr"
	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

// ProductLookup resolves a product id against the catalog.
type ProductLookup interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// View is a cart plus its derived totals. TotalItems counts distinct line
// items, not units.
type View struct {
	Items       []models.CartItem `json:"items"`
	TotalItems  int               `json:"total_items"`
	TotalAmount float64           `json:"total_amount"`
}

type Manager struct {
	carts   store.Carts
	catalog ProductLookup
	log     *slog.Logger
	now     func() time.Time
}

func NewManager(carts store.Carts, catalog ProductLookup, log *slog.Logger) *Manager {
	return &Manager{carts: carts, catalog: catalog, log: log, now: time.Now}
}

// MaxQuantity bounds the quantity of a single line item.
const MaxQuantity = 10000

var (
	errNotInCart      = apperr.New(apperr.KindNotFound, "Product not in cart")
	errQuantityTooBig = apperr.BadRequest(fmt.Sprintf("Quantity must be at most %d", MaxQuantity))
)

// load returns the stored cart, or an empty one when the user has none yet.
func (m *Manager) load(ctx context.Context, uid string) (*models.Cart, error) {
	c, err := m.carts.Get(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return &models.Cart{UID: uid, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []models.CartItem{}
	}
	return c, nil
}

func (m *Manager) save(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = m.now().UTC()
	return m.carts.Put(ctx, c)
}

func (m *Manager) Get(ctx context.Context, uid string) (*View, error) {
	c, err := m.load(ctx, uid)
	if err != nil {
		m.log.Error("fetch cart failed", "user_id", uid, "error", err)
		return nil, apperr.Internal("Error fetching cart", err)
	}
	m.log.Info("retrieved cart", "user_id", uid, "items", len(c.Items))
	return &View{
		Items:       c.Items,
		TotalItems:  len(c.Items),
		TotalAmount: c.TotalAmount(),
	}, nil
}

// Add merges quantity into the line item for productID, creating the cart
// and the line item as needed, and returns the new cart total. The line
// item's name, price and image are refreshed from the catalog.
func (m *Manager) Add(ctx context.Context, uid, productID string, quantity int) (float64, error) {
	if quantity < 1 {
		return 0, apperr.BadRequest("Quantity must be at least 1")
	}
	if quantity > MaxQuantity {
		return 0, errQuantityTooBig
	}

	product, err := m.catalog.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(product.Price) || math.IsInf(product.Price, 0) || product.Price < 0 {
		m.log.Error("product has invalid price", "product_id", productID, "price", product.Price)
		return 0, apperr.Internal("Error adding to cart", fmt.Errorf("product %s has invalid price", productID))
	}

	c, err := m.load(ctx, uid)
	if err != nil {
		m.log.Error("fetch cart failed", "user_id", uid, "error", err)
		return 0, apperr.Internal("Error adding to cart", err)
	}

	if i := c.Find(productID); i >= 0 {
		item := &c.Items[i]
		if item.Quantity > MaxQuantity-quantity {
			return 0, errQuantityTooBig
		}
		item.Quantity += quantity
		item.Name = product.Name
		item.Price = product.Price
		item.ImageURL = product.ImageURL
	} else {
		c.Items = append(c.Items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  quantity,
			ImageURL:  product.ImageURL,
		})
	}

	if err := m.save(ctx, c); err != nil {
		m.log.Error("save cart failed", "user_id", uid, "product_id", productID, "error", err)
		return 0, apperr.Internal("Error adding to cart", err)
	}

	m.log.Info("added to cart", "user_id", uid, "product_id", productID, "quantity", quantity)
	return c.TotalAmount(), nil
}

// Update sets the quantity of an existing line item. A quantity of zero or
// less removes the line item.
func (m *Manager) Update(ctx context.Context, uid, productID string, quantity int) error {
	if quantity <= 0 {
		return m.Remove(ctx, uid, productID)
	}
	if quantity > MaxQuantity {
		return errQuantityTooBig
	}

	c, err := m.load(ctx, uid)
	if err != nil {
		m.log.Error("fetch cart failed", "user_id", uid, "error", err)
		return apperr.Internal("Error updating cart", err)
	}

	i := c.Find(productID)
	if i < 0 {
		m.log.Warn("product not in cart", "user_id", uid, "product_id", productID)
		return errNotInCart
	}
	c.Items[i].Quantity = quantity

	if err := m.save(ctx, c); err != nil {
		m.log.Error("save cart failed", "user_id", uid, "product_id", productID, "error", err)
		return apperr.Internal("Error updating cart", err)
	}

	m.log.Info("updated cart", "user_id", uid, "product_id", productID, "quantity", quantity)
	return nil
}

// Remove deletes the line item for productID. Removing a product that is not
// in the cart is an error, not a no-op.
func (m *Manager) Remove(ctx context.Context, uid, productID string) error {
	c, err := m.load(ctx, uid)
	if err != nil {
		m.log.Error("fetch cart failed", "user_id", uid, "error", err)
		return apperr.Internal("Error removing from cart", err)
	}

	if !c.Remove(productID) {
		m.log.Warn("product not in cart", "user_id", uid, "product_id", productID)
		return errNotInCart
	}

	if err := m.save(ctx, c); err != nil {
		m.log.Error("save cart failed", "user_id", uid, "product_id", productID, "error", err)
		return apperr.Internal("Error removing from cart", err)
	}

	m.log.Info("removed from cart", "user_id", uid, "product_id", productID)
	return nil
}
