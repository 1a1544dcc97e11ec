package middleware

import (
	"net/http"
	"strings"

	"github.com/eliasspt/api-flight/internal/utils"

	"github.com/gin-gonic/gin"
)

const (
	AuthUserKey = "authUser"
	AuthRoleKey = "authRole"
)

// JWTAuthMiddleware creates a middleware that rejects requests without a
// valid bearer token
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token no proporcionado"})
			return
		}
		setClaims(c, jwtUtil, authHeader)
	}
}

// OptionalJWTAuthMiddleware is the variant used by the registration route:
// with no Authorization header the request passes through anonymously, but a
// header that is present and invalid is still rejected.
func OptionalJWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}
		setClaims(c, jwtUtil, authHeader)
	}
}

func setClaims(c *gin.Context, jwtUtil *utils.JWTUtil, authHeader string) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Formato de autorización inválido"})
		return
	}

	claims, err := jwtUtil.ValidateToken(parts[1])
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "Token inválido: " + err.Error()})
		return
	}

	c.Set(AuthUserKey, claims.UserID)
	c.Set(AuthRoleKey, claims.Rol)
	c.Next()
}
