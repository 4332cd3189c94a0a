package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"mindbridge/config"
	"mindbridge/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// IdentityKey is the gin context key carrying the authenticated caller.
const IdentityKey = "identity"

// AuthMiddleware validates the bearer token issued by the platform's account
// system (consumed here, not designed) and attaches an explicit
// models.Identity to the request context. Every downstream operation takes
// the identity as a value; nothing reads ambient "current user" state.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(config.AppConfig.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}

		userID, _ := claims["user_id"].(string)
		role, _ := claims["role"].(string)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Insufficient authorization"})
			return
		}

		c.Set(IdentityKey, models.Identity{UserID: userID, Role: role})
		c.Next()
	}
}

// Identity extracts the authenticated caller set by AuthMiddleware.
func Identity(c *gin.Context) (models.Identity, bool) {
	val, exists := c.Get(IdentityKey)
	if !exists {
		return models.Identity{}, false
	}
	id, ok := val.(models.Identity)
	return id, ok
}
