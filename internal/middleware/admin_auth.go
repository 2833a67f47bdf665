package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gitcordhq/gitcord/pkg/auth"
)

// AdminAuthMiddleware protects the admin API. Credentials may arrive either
// as an X-Api-Key header or as a Bearer token; both go through the same
// validator so the static and jwks providers are interchangeable.
func AdminAuthMiddleware(validator auth.Validator) gin.HandlerFunc {
	if validator == nil {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "admin validator not configured"})
		}
	}

	return func(c *gin.Context) {
		token := adminCredential(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("adminClaims", claims)
		c.Next()
	}
}

func adminCredential(c *gin.Context) string {
	if key := strings.TrimSpace(c.GetHeader("X-Api-Key")); key != "" {
		return key
	}
	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		return ""
	}
	return token
}

func bearerToken(authHeader string) (string, error) {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid Authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// GetAdminClaims returns the validated admin claims, if any.
func GetAdminClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get("adminClaims")
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
