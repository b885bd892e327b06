package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/internal/account"
	"storefront-backend/internal/cart"
	"storefront-backend/internal/catalog"
	"storefront-backend/internal/identity"
	"storefront-backend/internal/logging"
	"storefront-backend/internal/models"
	"storefront-backend/internal/orders"
	"storefront-backend/internal/store"
)

const testSecret = "handler-secret"

type testServer struct {
	store  *store.SQLite
	server *Server
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("no route to host") }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })

	ctx := context.Background()
	for _, p := range []models.Product{
		{ID: "mouse", Name: "Wireless Mouse", Description: "2.4GHz", Price: 899, ImageURL: "https://img/mouse.png", Stock: 10, Category: "accessories"},
		{ID: "keyboard", Name: "Keyboard", Description: "Mechanical", Price: 4999, ImageURL: "https://img/kb.png", Stock: 2, Category: "accessories"},
	} {
		require.NoError(t, s.Products().Put(ctx, &p))
	}

	verifier, err := identity.NewJWTVerifier(identity.Options{HMACSecret: testSecret})
	require.NoError(t, err)

	log := logging.Discard()
	reader := catalog.NewReader(s.Products(), log)
	srv := NewServer(Deps{
		Catalog:  reader,
		Carts:    cart.NewManager(s.Carts(), reader, log),
		Orders:   orders.NewService(s.Carts(), s.Orders(), log),
		Accounts: account.NewService(s.Users(), log),
		Verifier: verifier,
		Store:    s,
		Log:      log,
	}, Options{Environment: "test", Version: "1.0.0", CORSOrigins: []string{"http://localhost:3000"}})

	return &testServer{store: s, server: srv}
}

func tokenFor(t *testing.T, uid string) string {
	t.Helper()
	token, err := identity.IssueHMAC(testSecret, identity.User{UID: uid, Email: uid + "@example.com"}, "", "", time.Hour)
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestServiceEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]string](t, w)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "ecommerce-backend", health["service"])
	assert.Equal(t, "test", health["environment"])

	w = ts.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	root := decode[map[string]string](t, w)
	assert.Equal(t, "1.0.0", root["version"])
	assert.NotContains(t, root, "documentation")
}

func TestReadyWhenStoreDown(t *testing.T) {
	ts := newTestServer(t)
	ts.server.Store = downPinger{}

	w := ts.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Service not ready", decode[map[string]string](t, w)["detail"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProducts(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]models.Product](t, w)
	require.Len(t, listed, 2)

	for _, p := range listed {
		w := ts.do(t, http.MethodGet, "/products/"+p.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, p, decode[models.Product](t, w))
	}

	w = ts.do(t, http.MethodGet, "/products?limit=1&offset=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[[]models.Product](t, w)
	require.Len(t, page, 1)
	assert.Equal(t, "keyboard", page[0].ID)

	w = ts.do(t, http.MethodGet, "/products/toaster", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decode[map[string]string](t, w)["detail"])

	for _, q := range []string{"limit=0", "limit=500", "offset=-1", "limit=abc"} {
		w = ts.do(t, http.MethodGet, "/products?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/cart"},
		{http.MethodPost, "/cart/add"},
		{http.MethodPost, "/cart/update"},
		{http.MethodPost, "/cart/remove"},
		{http.MethodPost, "/orders/place"},
		{http.MethodGet, "/orders"},
		{http.MethodGet, "/auth/me"},
	}
	for _, r := range routes {
		w := ts.do(t, r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
		assert.Equal(t, "Missing Authorization header", decode[map[string]string](t, w)["detail"])

		w = ts.do(t, r.method, r.path, "forged.token.value", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, r.path)
		assert.Equal(t, "Invalid token", decode[map[string]string](t, w)["detail"])
	}

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

type cartResponse struct {
	Items       []models.CartItem `json:"items"`
	TotalItems  int               `json:"total_items"`
	TotalAmount float64           `json:"total_amount"`
}

func TestCartFlow(t *testing.T) {
	ts := newTestServer(t)
	token := tokenFor(t, "alice")

	w := ts.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := decode[cartResponse](t, w)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)

	w = ts.do(t, http.MethodPost, "/cart/add", token, gin.H{"product_id": "mouse", "quantity": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/cart/add", token, gin.H{"product_id": "mouse", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)
	added := decode[map[string]any](t, w)
	assert.Equal(t, "Item added to cart", added["message"])
	assert.Equal(t, 2697.0, added["cart_total"])

	w = ts.do(t, http.MethodPost, "/cart/add", token, gin.H{"product_id": "keyboard"})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[cartResponse](t, w)
	require.Len(t, view.Items, 2)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, 1, view.Items[1].Quantity)
	assert.Equal(t, 2, view.TotalItems)
	assert.Equal(t, 3*899.0+4999, view.TotalAmount)

	w = ts.do(t, http.MethodPost, "/cart/update", token, gin.H{"product_id": "mouse", "quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cart updated", decode[map[string]string](t, w)["message"])

	w = ts.do(t, http.MethodGet, "/cart", token, nil)
	view = decode[cartResponse](t, w)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "keyboard", view.Items[0].ProductID)

	w = ts.do(t, http.MethodPost, "/cart/remove", token, gin.H{"product_id": "keyboard"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Item removed from cart", decode[map[string]string](t, w)["message"])

	w = ts.do(t, http.MethodPost, "/cart/remove", token, gin.H{"product_id": "keyboard"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not in cart", decode[map[string]string](t, w)["detail"])
}

func TestCartErrors(t *testing.T) {
	ts := newTestServer(t)
	token := tokenFor(t, "alice")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"add zero quantity", "/cart/add", gin.H{"product_id": "mouse", "quantity": 0}, http.StatusBadRequest},
		{"add unknown product", "/cart/add", gin.H{"product_id": "toaster", "quantity": 1}, http.StatusNotFound},
		{"add missing product id", "/cart/add", gin.H{"quantity": 1}, http.StatusBadRequest},
		{"add above max quantity", "/cart/add", gin.H{"product_id": "mouse", "quantity": 10001}, http.StatusBadRequest},
		{"add max int quantity", "/cart/add", gin.H{"product_id": "mouse", "quantity": math.MaxInt}, http.StatusBadRequest},
		{"update above max quantity", "/cart/update", gin.H{"product_id": "mouse", "quantity": math.MaxInt}, http.StatusBadRequest},
		{"update missing quantity", "/cart/update", gin.H{"product_id": "mouse"}, http.StatusBadRequest},
		{"update absent product", "/cart/update", gin.H{"product_id": "mouse", "quantity": 4}, http.StatusNotFound},
		{"remove absent product", "/cart/remove", gin.H{"product_id": "mouse"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, tt.path, token, tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["detail"])
		})
	}
}

func TestPlaceOrderFlow(t *testing.T) {
	ts := newTestServer(t)
	token := tokenFor(t, "alice")

	w := ts.do(t, http.MethodPost, "/orders/place", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cart is empty", decode[map[string]string](t, w)["detail"])

	w = ts.do(t, http.MethodPost, "/cart/add", token, gin.H{"product_id": "mouse", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/orders/place", token, gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	placed := decode[map[string]any](t, w)
	assert.Equal(t, 1798.0, placed["total_amount"])
	orderID, _ := placed["order_id"].(string)
	require.NotEmpty(t, orderID)

	w = ts.do(t, http.MethodGet, "/cart", token, nil)
	assert.Empty(t, decode[cartResponse](t, w).Items)

	w = ts.do(t, http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Order](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, orderID, list[0].ID)
	assert.Equal(t, models.OrderPlaced, list[0].Status)

	w = ts.do(t, http.MethodGet, "/orders/"+orderID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1798.0, decode[models.Order](t, w).TotalAmount)

	w = ts.do(t, http.MethodGet, "/orders/"+orderID, tokenFor(t, "mallory"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodGet, "/orders", tokenFor(t, "bob"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestListOrdersNewestFirst(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 48 * time.Hour, 24 * time.Hour}
		require.NoError(t, ts.store.Orders().Create(ctx, &models.Order{
			ID: id, UID: "alice", Status: models.OrderPlaced, CreatedAt: base.Add(offsets[i]),
		}))
	}

	w := ts.do(t, http.MethodGet, "/orders", tokenFor(t, "alice"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Order](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"newest", "middle", "old"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func TestProfileSync(t *testing.T) {
	ts := newTestServer(t)
	token := tokenFor(t, "alice")

	w := ts.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	profile := gin.H{"firstname": "Alice", "lastname": "Liddell", "mobilenumber": "5551234567"}
	w = ts.do(t, http.MethodPost, "/auth/profile", token, profile)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile created successfully", decode[map[string]string](t, w)["message"])

	w = ts.do(t, http.MethodPost, "/auth/profile", token, profile)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Profile updated successfully", decode[map[string]string](t, w)["message"])

	w = ts.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]string](t, w)
	assert.Equal(t, "alice", me["uid"])
	assert.Equal(t, "alice@example.com", me["email"])
	assert.Equal(t, "Liddell", me["lastname"])

	w = ts.do(t, http.MethodPost, "/auth/profile", token, gin.H{"firstname": "A", "lastname": "L", "mobilenumber": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
