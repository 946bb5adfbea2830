package domain

import "time"

// Nomes dos cookies consumidos pelo gate e pela verificação de sessão.
const (
	CookieAuthToken     = "auth_token"
	CookieAuthUser      = "auth_user"
	CookieProspectToken = "prospecto_token"
)

// RateLimitEntry representa o estado de rastreamento de um identificador.
// Janela e bloqueio são dois timers independentes: o bloqueio sobrevive
// ao reset da janela.
type RateLimitEntry struct {
	Key           string     `json:"key"`
	Count         int        `json:"count"`
	WindowResetAt time.Time  `json:"windowResetAt"`
	BlockedUntil  *time.Time `json:"blockedUntil,omitempty"`
}

// Blocked informa se a entrada está em estado de bloqueio ativo.
func (e *RateLimitEntry) Blocked(now time.Time) bool {
	return e.BlockedUntil != nil && now.Before(*e.BlockedUntil)
}

// Expired informa se a entrada pode ser descartada pela limpeza periódica:
// janela expirada E bloqueio (se houver) também expirado.
func (e *RateLimitEntry) Expired(now time.Time) bool {
	if now.Before(e.WindowResetAt) {
		return false
	}
	return e.BlockedUntil == nil || !now.Before(*e.BlockedUntil)
}

// RateLimitPolicy define a tupla de limites de uma operação protegida.
type RateLimitPolicy struct {
	Name          string        `json:"name"`
	MaxRequests   int           `json:"maxRequests"`
	Window        time.Duration `json:"window"`
	BlockDuration time.Duration `json:"blockDuration"`
	Message       string        `json:"message"`
}

// RateLimitResult representa o resultado de uma verificação de rate limit.
type RateLimitResult struct {
	Allowed      bool       `json:"allowed"`
	Limit        int        `json:"limit"`
	Remaining    int        `json:"remaining"`
	ResetAt      time.Time  `json:"resetAt"`
	BlockedUntil *time.Time `json:"blockedUntil,omitempty"`
}

// User representa o conjunto de claims de sessão de um usuário autenticado.
// Os flags seguem a convenção do banco legado: 0/1 em vez de booleanos.
type User struct {
	ID               int64  `json:"id"`
	Nome             string `json:"nome"`
	Email            string `json:"email"`
	Admin            int    `json:"admin"`
	Distribuidor     int    `json:"distribuidor"`
	ConteudoEspecial int    `json:"conteudo_especial"`
}

// ProspectToken é a credencial temporária de acesso limitado concedida a
// prospectos antes da conversão em cliente.
type ProspectToken struct {
	Token       string    `json:"token"`
	ProspectoID int64     `json:"prospecto_id"`
	ExpiresAt   time.Time `json:"expiresAt"`
	CreatedAt   time.Time `json:"createdAt"`
}
