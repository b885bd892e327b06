package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront-backend/internal/apperr"
	"storefront-backend/internal/identity"
)

const userKey = "user"

// fail aborts the request with the status for err's kind and a single
// {"detail": ...} body.
func (s *Server) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		s.Log.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(kind.Status(), gin.H{"detail": apperr.Detail(err)})
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.Log.Error("unhandled panic", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		userID := "anonymous"
		if u, ok := currentUser(c); ok {
			userID = u.UID
		}
		status := c.Writer.Status()
		attrs := []any{
			"type", "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", status,
			"duration_ms", float64(time.Since(start).Microseconds()) / 1000,
			"user_id", userID,
		}

		switch {
		case status >= 500:
			s.Log.Error("request", attrs...)
		case status >= 400:
			s.Log.Warn("request", attrs...)
		default:
			s.Log.Info("request", attrs...)
		}
	}
}

// authRequired resolves the bearer token into an identity.User stored on the
// gin context.
func (s *Server) authRequired(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		s.fail(c, apperr.Unauthorized("Missing Authorization header"))
		return
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		s.fail(c, apperr.Unauthorized("Invalid Authorization header format. Expected: Bearer <token>"))
		return
	}

	user, err := s.Verifier.Verify(c.Request.Context(), strings.TrimSpace(token))
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnauthorized {
			err = apperr.Unauthorized("Token verification failed")
		}
		s.Log.Warn("token rejected", "path", c.Request.URL.Path)
		s.fail(c, err)
		return
	}

	c.Set(userKey, user)
	c.Next()
}

func currentUser(c *gin.Context) (identity.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return identity.User{}, false
	}
	u, ok := v.(identity.User)
	return u, ok
}

// mustUser is only called behind authRequired.
func mustUser(c *gin.Context) identity.User {
	u, _ := currentUser(c)
	return u
}
