// Package models holds the documents persisted in the users, products, carts
// and orders collections.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	UID          string    `bson:"_id" json:"uid"`
	Email        string    `bson:"email" json:"email"`
	FirstName    string    `bson:"firstname" json:"firstname"`
	LastName     string    `bson:"lastname" json:"lastname"`
	MobileNumber string    `bson:"mobilenumber" json:"mobilenumber"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// Product is read-only at runtime; only the importer writes it.
type Product struct {
	ID          string    `bson:"_id" json:"id" yaml:"product_id"`
	Name        string    `bson:"name" json:"name" yaml:"name"`
	Description string    `bson:"description" json:"description" yaml:"description"`
	Price       float64   `bson:"price" json:"price" yaml:"price"`
	ImageURL    string    `bson:"image_url" json:"image_url" yaml:"image_url"`
	Stock       int       `bson:"stock" json:"stock" yaml:"stock"`
	Category    string    `bson:"category" json:"category" yaml:"category"`
	CreatedAt   time.Time `bson:"created_at,omitempty" json:"created_at,omitempty" yaml:"-"`
}

// CartItem denormalizes name, price and image from the product at add time.
type CartItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	ImageURL  string  `bson:"image_url" json:"image_url"`
}

// Cart is a singleton per user, keyed by the user id.
type Cart struct {
	UID       string     `bson:"_id" json:"uid"`
	Items     []CartItem `bson:"items" json:"items"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updated_at"`
}

// Find returns the index of the line item for productID, or -1.
func (c *Cart) Find(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Remove drops the line item for productID and reports whether it was present.
func (c *Cart) Remove(productID string) bool {
	i := c.Find(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// TotalAmount is the sum of price*quantity over all line items.
func (c *Cart) TotalAmount() float64 {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(lineTotal(item.Price, item.Quantity))
	}
	return total.InexactFloat64()
}

type OrderStatus string

const (
	OrderPlaced     OrderStatus = "PLACED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
)

type OrderItem struct {
	ProductID string  `bson:"product_id" json:"product_id"`
	Name      string  `bson:"name" json:"name"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Price     float64 `bson:"price" json:"price"`
}

// Order is an immutable snapshot of a cart. TotalAmount is computed once at
// placement and never recomputed.
type Order struct {
	ID          string      `bson:"_id" json:"id"`
	UID         string      `bson:"uid" json:"uid"`
	Items       []OrderItem `bson:"items" json:"items"`
	TotalAmount float64     `bson:"total_amount" json:"total_amount"`
	Status      OrderStatus `bson:"status" json:"status"`
	CreatedAt   time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updated_at"`
}

func lineTotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity)))
}
