package api

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/account"
	"storefront-backend/internal/apperr"
	"storefront-backend/internal/catalog"
	"storefront-backend/internal/logging"
	"storefront-backend/internal/models"
)

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"omitempty,max=10000"`
}

type updateCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required,max=10000"`
}

type removeFromCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (s *Server) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		s.fail(c, apperr.BadRequest("Invalid request body: "+err.Error()))
		return false
	}
	return true
}

// Service info

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "E-Commerce Backend API",
		"version":     s.opts.Version,
		"environment": s.opts.Environment,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     logging.ServiceName,
		"environment": s.opts.Environment,
	})
}

func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Error("readiness check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "Service not ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "service": logging.ServiceName})
}

// Products

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.BadRequest(key + " must be an integer")
	}
	return n, nil
}

func (s *Server) handleListProducts(c *gin.Context) {
	limit, err := queryInt(c, "limit", catalog.DefaultLimit)
	if err != nil {
		s.fail(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.fail(c, err)
		return
	}
	if limit == 0 {
		s.fail(c, apperr.BadRequest("limit must be between 1 and 200"))
		return
	}

	products, err := s.Catalog.ListProducts(c.Request.Context(), limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s *Server) handleGetProduct(c *gin.Context) {
	product, err := s.Catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// Profile

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.Accounts.Me(c.Request.Context(), mustUser(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"uid":          user.UID,
		"email":        user.Email,
		"firstname":    user.FirstName,
		"lastname":     user.LastName,
		"mobilenumber": user.MobileNumber,
	})
}

func (s *Server) handleSaveProfile(c *gin.Context) {
	var req account.Profile
	if !s.bind(c, &req) {
		return
	}

	who := mustUser(c)
	created, err := s.Accounts.Save(c.Request.Context(), who, req)
	if err != nil {
		s.fail(c, err)
		return
	}

	action := "updated"
	if created {
		action = "created"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile " + action + " successfully",
		"uid":     who.UID,
	})
}

// Cart

func (s *Server) handleGetCart(c *gin.Context) {
	view, err := s.Carts.Get(c.Request.Context(), mustUser(c).UID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if !s.bind(c, &req) {
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	total, err := s.Carts.Add(c.Request.Context(), mustUser(c).UID, req.ProductID, quantity)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Item added to cart",
		"cart_total": total,
	})
}

func (s *Server) handleUpdateCart(c *gin.Context) {
	var req updateCartRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.Carts.Update(c.Request.Context(), mustUser(c).UID, req.ProductID, *req.Quantity); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated"})
}

func (s *Server) handleRemoveFromCart(c *gin.Context) {
	var req removeFromCartRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.Carts.Remove(c.Request.Context(), mustUser(c).UID, req.ProductID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// Orders

func (s *Server) handlePlaceOrder(c *gin.Context) {
	placed, err := s.Orders.PlaceOrder(c.Request.Context(), mustUser(c).UID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Order placed successfully",
		"order_id":     placed.OrderID,
		"total_amount": placed.TotalAmount,
	})
}

// handleListOrders shows the most recent order first. Storage order is not
// relied on.
func (s *Server) handleListOrders(c *gin.Context) {
	list, err := s.Orders.ListOrders(c.Request.Context(), mustUser(c).UID)
	if err != nil {
		s.fail(c, err)
		return
	}
	slices.SortStableFunc(list, func(a, b models.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetOrder(c *gin.Context) {
	order, err := s.Orders.GetOrder(c.Request.Context(), mustUser(c).UID, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
