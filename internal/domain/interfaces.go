package domain

import (
	"context"
	"time"
)

// RateLimiterStorage define a interface de armazenamento do rate limiter.
// Strategy Pattern: a implementação em memória atende um processo único e a
// implementação Redis permite escala horizontal sem mudar o contrato de Check.
type RateLimiterStorage interface {
	// Take aplica atomicamente a transição janela-deslizante + bloqueio para
	// uma chave e retorna a entrada resultante. Com bloqueio ativo o contador
	// não é incrementado.
	Take(ctx context.Context, key string, limit int, window, blockDuration time.Duration) (*RateLimitEntry, error)

	// Get recupera a entrada atual de uma chave, ou nil se não existir.
	Get(ctx context.Context, key string) (*RateLimitEntry, error)

	// Reset limpa incondicionalmente o rastreamento de uma chave.
	Reset(ctx context.Context, key string) error

	// Health verifica se o storage está saudável.
	Health(ctx context.Context) error

	// Close encerra o storage e interrompe rotinas de limpeza.
	Close() error
}

// RateLimiterService define o serviço de rate limiting consumido pelo
// middleware e pelos endpoints administrativos.
type RateLimiterService interface {
	// Check verifica se uma requisição do identificador deve ser permitida
	// segundo a política informada.
	Check(ctx context.Context, identifier string, policy RateLimitPolicy) (*RateLimitResult, error)

	// Policy retorna a política registrada para uma operação, ou a política
	// padrão quando a operação não está na tabela.
	Policy(operation string) RateLimitPolicy

	// Status retorna a entrada atual de um identificador.
	Status(ctx context.Context, identifier string) (*RateLimitEntry, error)

	// Reset limpa o rastreamento de um identificador (válvula administrativa).
	Reset(ctx context.Context, identifier string) error

	// Close interrompe o storage subjacente e sua limpeza em background.
	Close() error
}

// TokenStore define a persistência de tokens de prospecto. O banco relacional
// da loja é um colaborador externo; aqui só importa o contrato.
type TokenStore interface {
	Save(ctx context.Context, token *ProspectToken) error
	Validate(ctx context.Context, token string) (*ProspectToken, error)
	Revoke(ctx context.Context, token string) error
	Close() error
}

// CredentialChecker valida credenciais de login contra o cadastro de
// usuários (colaborador externo).
type CredentialChecker interface {
	Check(ctx context.Context, email, senha string) (*User, error)
}

// Logger define a interface para logging estruturado.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
	WithContext(ctx context.Context) Logger
}
