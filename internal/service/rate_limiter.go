package service

import (
	"context"
	"fmt"
	"time"

	"edge-gate/internal/domain"
)

// defaultPolicy é aplicada a operações sem entrada na tabela.
var defaultPolicy = domain.RateLimitPolicy{
	Name:          "default",
	MaxRequests:   60,
	Window:        1 * time.Minute,
	BlockDuration: 5 * time.Minute,
	Message:       "too many requests, try again later",
}

// RateLimiterService implementa a lógica de decisão do rate limiting sobre o
// storage. Uma única instância vive pela duração do processo; Close interrompe
// a limpeza em background do storage.
type RateLimiterService struct {
	storage  domain.RateLimiterStorage
	policies map[string]domain.RateLimitPolicy
	logger   domain.Logger
}

// NewRateLimiterService cria uma nova instância do serviço.
func NewRateLimiterService(
	storage domain.RateLimiterStorage,
	policies map[string]domain.RateLimitPolicy,
	logger domain.Logger,
) domain.RateLimiterService {
	if policies == nil {
		policies = make(map[string]domain.RateLimitPolicy)
	}
	return &RateLimiterService{
		storage:  storage,
		policies: policies,
		logger:   logger,
	}
}

// BuildIdentifier monta o identificador rastreado no formato operação:ip,
// para que o mesmo IP tenha orçamentos independentes por operação.
func BuildIdentifier(operation, ip string) string {
	return fmt.Sprintf("%s:%s", operation, ip)
}

// Check verifica se uma requisição do identificador deve ser permitida.
// Bloqueio ativo tem precedência sobre o contador; janela expirada inicia
// contagem nova; exceder o limite com BlockDuration configurado entra em
// estado bloqueado até o prazo, independente de resets de janela.
func (s *RateLimiterService) Check(ctx context.Context, identifier string, policy domain.RateLimitPolicy) (*domain.RateLimitResult, error) {
	entry, err := s.storage.Take(ctx, identifier, policy.MaxRequests, policy.Window, policy.BlockDuration)
	if err != nil {
		s.logger.Error("Failed to take rate limit entry", err, map[string]interface{}{
			"identifier": identifier,
			"policy":     policy.Name,
		})
		return nil, fmt.Errorf("failed to check rate limit: %w", err)
	}

	now := time.Now()
	blocked := entry.Blocked(now)
	allowed := !blocked && entry.Count <= policy.MaxRequests

	remaining := policy.MaxRequests - entry.Count
	if remaining < 0 || !allowed {
		remaining = 0
	}

	resetAt := entry.WindowResetAt
	if blocked {
		resetAt = *entry.BlockedUntil
	}

	result := &domain.RateLimitResult{
		Allowed:      allowed,
		Limit:        policy.MaxRequests,
		Remaining:    remaining,
		ResetAt:      resetAt,
		BlockedUntil: entry.BlockedUntil,
	}

	if !allowed {
		s.logger.Warn("Rate limit exceeded", map[string]interface{}{
			"identifier":    identifier,
			"policy":        policy.Name,
			"count":         entry.Count,
			"limit":         policy.MaxRequests,
			"blocked_until": entry.BlockedUntil,
		})
	} else {
		s.logger.Debug("Rate limit check passed", map[string]interface{}{
			"identifier": identifier,
			"policy":     policy.Name,
			"count":      entry.Count,
			"remaining":  remaining,
		})
	}

	return result, nil
}

// Policy retorna a política registrada para uma operação, ou a padrão.
func (s *RateLimiterService) Policy(operation string) domain.RateLimitPolicy {
	if policy, exists := s.policies[operation]; exists {
		return policy
	}
	return defaultPolicy
}

// Status retorna a entrada atual de um identificador.
func (s *RateLimiterService) Status(ctx context.Context, identifier string) (*domain.RateLimitEntry, error) {
	entry, err := s.storage.Get(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return entry, nil
}

// Reset limpa incondicionalmente o rastreamento de um identificador.
func (s *RateLimiterService) Reset(ctx context.Context, identifier string) error {
	if err := s.storage.Reset(ctx, identifier); err != nil {
		return fmt.Errorf("failed to reset identifier: %w", err)
	}

	s.logger.Info("Rate limit reset", map[string]interface{}{
		"identifier": identifier,
	})
	return nil
}

// Close encerra o storage subjacente e interrompe a limpeza em background.
// Necessário em testes e no shutdown do servidor.
func (s *RateLimiterService) Close() error {
	return s.storage.Close()
}
