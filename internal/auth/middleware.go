package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys
const (
	UsernameKey = "auth_username"
	MethodKey   = "auth_method"
)

// Realm is advertised in WWW-Authenticate on 401 responses
const Realm = "Scoring API"

// RequireAuth accepts HTTP basic credentials, or a bearer token when jwtService is
// non-nil. Anything else gets a 401 with a basic challenge.
func RequireAuth(creds Credentials, jwtService *JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		if username, password, ok := c.Request.BasicAuth(); ok {
			if creds.Verify(username, password) {
				c.Set(UsernameKey, username)
				c.Set(MethodKey, "basic")
				c.Next()
				return
			}
		} else if jwtService != nil && strings.HasPrefix(header, "Bearer ") {
			claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err == nil {
				c.Set(UsernameKey, claims.Username)
				c.Set(MethodKey, "bearer")
				c.Next()
				return
			}
		}

		Challenge(c)
	}
}

// Challenge aborts the request with the standard 401 response
func Challenge(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="`+Realm+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   "Unauthorized",
		"message": "Please provide valid credentials",
	})
}
