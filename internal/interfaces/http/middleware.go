package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"expenseflow/internal/domain/entity"
)

const principalKey = "principal"

// AuthMiddleware validates the Bearer token and places the caller's
// principal into the request context
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "authorization header is missing",
			})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid authorization format, expected 'Bearer <token>'",
			})
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token claims",
			})
			return
		}

		userID, _ := claims["sub"].(string)
		roleStr, _ := claims["role"].(string)
		if userID == "" || roleStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "token is missing subject or role",
			})
			return
		}

		role := entity.Role(roleStr)
		if role != entity.RoleUser && role != entity.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, Response{
				Success: false,
				Error:   "unknown role",
			})
			return
		}

		c.Set(principalKey, entity.Principal{UserID: userID, Role: role})
		c.Next()
	}
}

// principalFrom extracts the authenticated principal placed by AuthMiddleware
func principalFrom(c *gin.Context) (entity.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return entity.Principal{}, false
	}
	p, ok := v.(entity.Principal)
	return p, ok
}
