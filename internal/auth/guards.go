package auth

import (
	"net/http"

	"edge-gate/internal/domain"

	"github.com/gin-gonic/gin"
)

// userContextKey é a chave do usuário autenticado no contexto da requisição.
const userContextKey = "edge_gate_user"

// UserFromContext recupera o usuário colocado no contexto por RequireAuth.
func UserFromContext(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(userContextKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// RequireAuth verifica a sessão criptograficamente e injeta o usuário no
// contexto. Falha com 401; o handler de negócio nunca roda.
func RequireAuth(tm *TokenManager, logger domain.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := Verify(c, tm)
		if err != nil {
			logger.Warn("Authentication failed", map[string]interface{}{
				"ip":     c.ClientIP(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"reason": err.Error(),
			})

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "authentication required",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin compõe sobre RequireAuth: sessão válida porém sem o flag
// administrativo recebe 403, com atribuição de identidade no log.
func RequireAdmin(tm *TokenManager, logger domain.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok {
			var err error
			user, err = Verify(c, tm)
			if err != nil {
				logger.Warn("Authentication failed", map[string]interface{}{
					"ip":     c.ClientIP(),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"reason": err.Error(),
				})

				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":   "unauthorized",
					"message": "authentication required",
				})
				return
			}
			c.Set(userContextKey, user)
		}

		if !IsAdmin(user) {
			logger.Warn("Privileged access denied", map[string]interface{}{
				"ip":      c.ClientIP(),
				"path":    c.Request.URL.Path,
				"user_id": user.ID,
				"email":   user.Email,
			})

			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "admin privileges required",
			})
			return
		}

		c.Next()
	}
}
