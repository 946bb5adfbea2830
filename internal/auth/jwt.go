package auth

import (
	"fmt"
	"time"

	"edge-gate/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims é o payload do JWT de sessão. Espelha domain.User mais os
// claims registrados de expiração/emissão.
type SessionClaims struct {
	UserID           int64  `json:"user_id"`
	Nome             string `json:"nome"`
	Email            string `json:"email"`
	Admin            int    `json:"admin"`
	Distribuidor     int    `json:"distribuidor"`
	ConteudoEspecial int    `json:"conteudo_especial"`
	jwt.RegisteredClaims
}

// User converte os claims verificados para a entidade de domínio. O JWT é a
// única fonte de verdade para decisões de autorização.
func (c *SessionClaims) User() *domain.User {
	return &domain.User{
		ID:               c.UserID,
		Nome:             c.Nome,
		Email:            c.Email,
		Admin:            c.Admin,
		Distribuidor:     c.Distribuidor,
		ConteudoEspecial: c.ConteudoEspecial,
	}
}

// TokenManager assina e verifica os JWTs de sessão com segredo HMAC.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewTokenManager cria um novo TokenManager. O segredo vem obrigatoriamente
// da configuração; não existe fallback.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "edge-gate",
	}
}

// Issue emite um JWT de sessão para o usuário.
func (m *TokenManager) Issue(user *domain.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)

	claims := &SessionClaims{
		UserID:           user.ID,
		Nome:             user.Nome,
		Email:            user.Email,
		Admin:            user.Admin,
		Distribuidor:     user.Distribuidor,
		ConteudoEspecial: user.ConteudoEspecial,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifica assinatura e expiração de um JWT de sessão.
func (m *TokenManager) Parse(tokenStr string) (*SessionClaims, error) {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, keyFunc,
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}
