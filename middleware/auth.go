package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/npcbrain/cache"
	"github.com/kasuganosora/npcbrain/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	ClaimsKey      = "claims"
	AdminKeyHeader = "X-Admin-Key"
)

// bearer extracts the session token from the Authorization header or, for
// EventSource clients that cannot set headers, the token query parameter.
func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// Session validates the JWT and checks that its session is still live in
// the cache. Tokens lacking scope are rejected with 403.
func Session(sec config.SecurityConfig, ch cache.Cache, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearer(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		exists, err := ch.Exists(cacheCtx, cache.SessionKey(tokenStr))
		if err != nil || !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}
		if scope != "" && claims.Scope != scope && claims.Scope != ScopeAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient scope"})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// GetClaims retrieves the session claims from the Gin context.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ClaimsKey); exists {
		if cl, ok := v.(*Claims); ok {
			return cl
		}
	}
	return nil
}

// AdminAuth checks the X-Admin-Key header. adminKey may be the key itself
// or its bcrypt hash. With no key configured every admin route answers 503.
func AdminAuth(adminKey string) gin.HandlerFunc {
	_, costErr := bcrypt.Cost([]byte(adminKey))
	hashed := costErr == nil
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		if !adminKeyMatches(c.GetHeader(AdminKeyHeader), adminKey, hashed) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
			return
		}
		c.Next()
	}
}

func adminKeyMatches(key, adminKey string, hashed bool) bool {
	if key == "" {
		return false
	}
	if hashed {
		return bcrypt.CompareHashAndPassword([]byte(adminKey), []byte(key)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) == 1
}
