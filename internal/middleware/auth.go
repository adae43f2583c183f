package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salonikashyap7899/IG-Clone/internal/auth"
)

// Context keys under which the middleware stores the caller's claims.
// Constants instead of inline strings: a typo in a key name fails loudly at
// the compiler instead of silently returning nil at runtime.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
)

// AuthMiddleware validates the session token and aborts with 401 before the
// handler runs if it's missing or invalid.
//
// The token is taken from the Authorization header ("Bearer <token>"), or
// from a ?token= query parameter as a fallback: the browser WebSocket API
// cannot set request headers, so the stream endpoints authenticate via the
// query string.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""

		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid authorization format, expected: Bearer <token>",
				})
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization token",
			})
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)

		c.Next()
	}
}

// GetUserID returns the authenticated caller's id, or uuid.Nil when the
// middleware didn't run. uuid.Nil matches nothing in the database, so a
// misconfigured route degrades to not-found rather than leaking data.
func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetUsername(c *gin.Context) string {
	val, exists := c.Get(ContextKeyUsername)
	if !exists {
		return ""
	}
	username, ok := val.(string)
	if !ok {
		return ""
	}
	return username
}
