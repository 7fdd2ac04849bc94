package httpapi

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/latecheck/internal/common"
	"github.com/dmitrijs2005/latecheck/internal/logging"
	"github.com/dmitrijs2005/latecheck/internal/server/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	claimsKey       = "claims"
)

// AccessLog writes one line per request through the server logger.
func AccessLog(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		log.Info(c.Request.Context(), "request",
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// CORS admits only the configured front-end origins.
func CORS(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", common.AuthorizationHeaderName, requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// TokenAuthorizer resolves a bearer token; *services.AdminService is one.
type TokenAuthorizer interface {
	Authorize(token string) (*auth.Claims, error)
}

// AdminOnly rejects requests without a valid administrator bearer token.
func AdminOnly(a TokenAuthorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			fail(c, http.StatusUnauthorized, "authorization required")
			return
		}

		claims, err := a.Authorize(token)
		if err != nil {
			fail(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// claimsOf returns the claims stored by AdminOnly, or nil outside that group.
func claimsOf(c *gin.Context) *auth.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

// RequireRole admits only tokens whose role is one of roles. It must run
// after AdminOnly.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsOf(c)
		if claims == nil {
			fail(c, http.StatusUnauthorized, "authorization required")
			return
		}
		if !slices.Contains(roles, claims.Role) {
			fail(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}
