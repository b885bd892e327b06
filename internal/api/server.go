// Package api is the HTTP/JSON surface of the storefront backend.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"storefront-backend/internal/account"
	"storefront-backend/internal/cart"
	"storefront-backend/internal/catalog"
	"storefront-backend/internal/identity"
	"storefront-backend/internal/orders"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Catalog  *catalog.Reader
	Carts    *cart.Manager
	Orders   *orders.Service
	Accounts *account.Service
	Verifier identity.Verifier
	Store    Pinger
	Log      *slog.Logger
}

type Options struct {
	Environment string
	Version     string
	CORSOrigins []string
}

// Server wires the route table onto a gin engine.
type Server struct {
	Deps
	opts   Options
	router *gin.Engine
}

func NewServer(deps Deps, opts Options) *Server {
	router := gin.New()

	s := &Server{Deps: deps, opts: opts, router: router}

	router.Use(s.recovery(), s.requestLogger())
	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           time.Hour,
		}))
	}

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)

	router.GET("/products", s.handleListProducts)
	router.GET("/products/:id", s.handleGetProduct)

	auth := router.Group("/", s.authRequired)
	{
		auth.GET("/auth/me", s.handleMe)
		auth.POST("/auth/profile", s.handleSaveProfile)

		auth.GET("/cart", s.handleGetCart)
		auth.POST("/cart/add", s.handleAddToCart)
		auth.POST("/cart/update", s.handleUpdateCart)
		auth.POST("/cart/remove", s.handleRemoveFromCart)

		auth.POST("/orders/place", s.handlePlaceOrder)
		auth.GET("/orders", s.handleListOrders)
		auth.GET("/orders/:id", s.handleGetOrder)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and blocks until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
