package auth

import (
	"encoding/json"
	"strings"

	"edge-gate/internal/domain"

	"github.com/gin-gonic/gin"
)

// Verify é a verificação criptográfica de sessão usada pelas rotas
// protegidas, distinta da checagem barata de presença feita pelo gate.
// Exige os dois cookies, valida o JWT e cruza a identidade com o cookie
// auth_user espelhado; divergência é adulteração.
func Verify(c *gin.Context, tm *TokenManager) (*domain.User, error) {
	tokenCookie, err := c.Cookie(domain.CookieAuthToken)
	if err != nil || tokenCookie == "" {
		return nil, domain.ErrMissingCredentials
	}

	userCookie, err := c.Cookie(domain.CookieAuthUser)
	if err != nil || userCookie == "" {
		return nil, domain.ErrMissingCredentials
	}

	claims, err := tm.Parse(tokenCookie)
	if err != nil {
		return nil, err
	}

	var mirror domain.User
	if err := json.Unmarshal([]byte(userCookie), &mirror); err != nil {
		return nil, domain.ErrCredentialMismatch
	}

	if mirror.ID != claims.UserID || !strings.EqualFold(mirror.Email, claims.Email) {
		return nil, domain.ErrCredentialMismatch
	}

	// As decisões de autorização leem os claims do JWT verificado; o cookie
	// espelhado serve apenas como evidência de adulteração.
	return claims.User(), nil
}

// IsAdmin informa se o usuário tem o flag administrativo.
func IsAdmin(user *domain.User) bool {
	return user != nil && user.Admin != 0
}

// IsDistributor informa se o usuário é distribuidor.
func IsDistributor(user *domain.User) bool {
	return user != nil && user.Distribuidor == 1
}

// HasSpecialContent informa se o usuário tem acesso a conteúdo especial.
func HasSpecialContent(user *domain.User) bool {
	return user != nil && user.ConteudoEspecial == 1
}
