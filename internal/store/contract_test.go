package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/models"
)

// runContract exercises the behavior every Store backend must share. open
// returns a fresh, empty store.
func runContract(t *testing.T, open func(t *testing.T) Store) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s Store)
	}{
		{"ProductsListInInsertionOrder", testProductsListInInsertionOrder},
		{"ProductPutReplaces", testProductPutReplaces},
		{"GetMissingReturnsErrNotFound", testGetMissingReturnsErrNotFound},
		{"CartPutOverwritesWholeDocument", testCartPutOverwritesWholeDocument},
		{"OrdersScopedToOwner", testOrdersScopedToOwner},
		{"OrderCreateRejectsDuplicateID", testOrderCreateRejectsDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, open(t))
		})
	}
}

func testProductsListInInsertionOrder(t *testing.T, s Store) {
	ctx := context.Background()

	for _, id := range []string{"mouse", "keyboard", "monitor"} {
		require.NoError(t, s.Products().Put(ctx, &models.Product{ID: id, Name: id, Price: 10}))
	}

	all, err := s.Products().List(ctx, 50, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "mouse", all[0].ID)
	assert.Equal(t, "monitor", all[2].ID)

	page, err := s.Products().List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "keyboard", page[0].ID)

	empty, err := s.Products().List(ctx, 10, 5)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testProductPutReplaces(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Products().Put(ctx, &models.Product{ID: "mouse", Name: "Mouse", Price: 899, Stock: 4}))
	require.NoError(t, s.Products().Put(ctx, &models.Product{ID: "mouse", Name: "Mouse v2", Price: 999, Stock: 1}))

	got, err := s.Products().Get(ctx, "mouse")
	require.NoError(t, err)
	assert.Equal(t, "Mouse v2", got.Name)
	assert.Equal(t, 999.0, got.Price)

	all, err := s.Products().List(ctx, 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testGetMissingReturnsErrNotFound(t *testing.T, s Store) {
	ctx := context.Background()

	_, err := s.Products().Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Carts().Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Users().Get(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Orders().Get(ctx, "user-1", "order-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testCartPutOverwritesWholeDocument(t *testing.T, s Store) {
	ctx := context.Background()

	cart := &models.Cart{UID: "user-1", Items: []models.CartItem{
		{ProductID: "mouse", Quantity: 2, Price: 899},
		{ProductID: "keyboard", Quantity: 1, Price: 4999},
	}}
	require.NoError(t, s.Carts().Put(ctx, cart))

	cart.Items = []models.CartItem{{ProductID: "keyboard", Quantity: 3, Price: 4999}}
	require.NoError(t, s.Carts().Put(ctx, cart))

	got, err := s.Carts().Get(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "keyboard", got.Items[0].ProductID)
	assert.Equal(t, 3, got.Items[0].Quantity)
}

func testOrdersScopedToOwner(t *testing.T, s Store) {
	ctx := context.Background()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, s.Orders().Create(ctx, &models.Order{ID: "o1", UID: "alice", TotalAmount: 10, Status: models.OrderPlaced, CreatedAt: created}))
	require.NoError(t, s.Orders().Create(ctx, &models.Order{ID: "o2", UID: "bob", TotalAmount: 20, Status: models.OrderPlaced}))
	require.NoError(t, s.Orders().Create(ctx, &models.Order{ID: "o3", UID: "alice", TotalAmount: 30, Status: models.OrderPlaced}))

	alice, err := s.Orders().ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.Equal(t, "o1", alice[0].ID)
	assert.Equal(t, "o3", alice[1].ID)
	assert.True(t, created.Equal(alice[0].CreatedAt))

	_, err = s.Orders().Get(ctx, "bob", "o1")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.Orders().Get(ctx, "alice", "o1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.TotalAmount)
}

func testOrderCreateRejectsDuplicateID(t *testing.T, s Store) {
	ctx := context.Background()

	require.NoError(t, s.Orders().Create(ctx, &models.Order{ID: "o1", UID: "alice"}))
	assert.Error(t, s.Orders().Create(ctx, &models.Order{ID: "o1", UID: "alice"}))
}
