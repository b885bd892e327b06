// Package store persists the four top-level collections: users, products,
// carts and orders. Every document is keyed by a stable string id.
//
// Writes are whole-document: Carts.Put replaces the stored cart entirely and
// concurrent writers for the same user resolve as last-writer-wins. No
// operation spans more than one document.
package store

import (
	"context"
	"errors"

	"storefront-backend/internal/models"
)

// ErrNotFound is returned when a keyed document does not exist.
var ErrNotFound = errors.New("document not found")

const (
	CollectionUsers    = "users"
	CollectionProducts = "products"
	CollectionCarts    = "carts"
	CollectionOrders   = "orders"
)

type Products interface {
	// List returns up to limit products after skipping offset, in storage order.
	List(ctx context.Context, limit, offset int) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Put(ctx context.Context, p *models.Product) error
}

type Carts interface {
	Get(ctx context.Context, uid string) (*models.Cart, error)
	// Put upserts the whole cart document keyed by cart.UID.
	Put(ctx context.Context, cart *models.Cart) error
}

type Orders interface {
	// Create inserts a new order. It fails if the id already exists.
	Create(ctx context.Context, o *models.Order) error
	ListByUser(ctx context.Context, uid string) ([]models.Order, error)
	Get(ctx context.Context, uid, id string) (*models.Order, error)
}

type Users interface {
	Get(ctx context.Context, uid string) (*models.User, error)
	Put(ctx context.Context, u *models.User) error
}

// Store bundles the collections behind one connection.
type Store interface {
	Products() Products
	Carts() Carts
	Orders() Orders
	Users() Users
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
