// Package auth проверяет bearer токены на входящих запросах.
package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Popolzen/shortly/internal/service/identity"
)

const (
	// ContextUserID ключ идентификатора пользователя в контексте gin
	ContextUserID = "user_id"
	// ContextUsername ключ имени пользователя в контексте gin
	ContextUsername = "username"
)

// RequireAuth пропускает только запросы с валидным токеном
func RequireAuth(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFromRequest(c, ids)
		if !ok {
			c.AbortWithStatusJSON(401, gin.H{"error": "требуется аутентификация"})
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// OptionalAuth кладет пользователя в контекст, если токен валиден.
// Запрос без токена или с невалидным токеном проходит как анонимный.
func OptionalAuth(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := claimsFromRequest(c, ids); ok {
			c.Set(ContextUserID, claims.Subject)
			c.Set(ContextUsername, claims.Username)
		}
		c.Next()
	}
}

// claimsFromRequest извлекает и проверяет bearer токен из заголовка
func claimsFromRequest(c *gin.Context, ids *identity.Service) (*identity.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, false
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return nil, false
	}

	claims, err := ids.ValidateToken(strings.TrimSpace(tokenString))
	if err != nil {
		return nil, false
	}
	return claims, true
}
