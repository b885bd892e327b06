// Package catalog is the read-only view of the products collection. Every
// call goes straight to the store.
package catalog

import (
	"context"
	"errors"
	"log/slog"

	"storefront-backend/internal/apperr"
	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

type Reader struct {
	products store.Products
	log      *slog.Logger
}

func NewReader(products store.Products, log *slog.Logger) *Reader {
	return &Reader{products: products, log: log}
}

// ListProducts returns up to limit products in storage order. A limit of 0
// means DefaultLimit.
func (r *Reader) ListProducts(ctx context.Context, limit, offset int) ([]models.Product, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return nil, apperr.BadRequest("limit must be between 1 and 200")
	}
	if offset < 0 {
		return nil, apperr.BadRequest("offset must be non-negative")
	}

	products, err := r.products.List(ctx, limit, offset)
	if err != nil {
		r.log.Error("list products failed", "limit", limit, "offset", offset, "error", err)
		return nil, apperr.Internal("Error fetching products", err)
	}
	r.log.Info("listed products", "count", len(products), "limit", limit, "offset", offset)
	return products, nil
}

func (r *Reader) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := r.products.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		r.log.Warn("product not found", "product_id", id)
		return nil, apperr.NotFound("Product")
	}
	if err != nil {
		r.log.Error("get product failed", "product_id", id, "error", err)
		return nil, apperr.Internal("Error fetching product", err)
	}
	return product, nil
}
