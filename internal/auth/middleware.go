package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"libraryhub/pkg/models"
)

const ctxPrincipalKey = "principal"

// Principal is the authenticated caller. Handlers dispatch on Role.
type Principal struct {
	UserID   int64
	Username string
	Role     models.Role
}

func (p Principal) Is(r models.Role) bool { return p.Role == r }

func RequireJWT(secret []byte) gin.HandlerFunc {
	return requireJWT(secret, false)
}

// RequireJWTOrQuery also accepts the access token as ?token=, for websocket clients
// that cannot set headers.
func RequireJWTOrQuery(secret []byte) gin.HandlerFunc {
	return requireJWT(secret, true)
}

func requireJWT(secret []byte, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string
		h := c.GetHeader("Authorization")
		switch {
		case strings.HasPrefix(h, "Bearer "):
			tokenStr = strings.TrimPrefix(h, "Bearer ")
		case h == "" && allowQuery:
			tokenStr = c.Query("token")
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := ParseJWT(secret, tokenStr, AccessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxPrincipalKey, claims.Principal())
		c.Next()
	}
}

// RequireRole rejects callers whose role differs with 403 and the given message.
// It must run after RequireJWT.
func RequireRole(role models.Role, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		if !p.Is(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": message})
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(ctxPrincipalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
