package storage

import (
	"context"
	"sync"
	"time"

	"edge-gate/internal/domain"
)

// MemoryTokenStore implementa domain.TokenStore em memória, para processo
// único e testes.
type MemoryTokenStore struct {
	tokens map[string]*domain.ProspectToken
	mutex  sync.RWMutex
	stop   chan struct{}
	once   sync.Once
	logger domain.Logger
}

// NewMemoryTokenStore cria um novo store de tokens de prospecto em memória.
func NewMemoryTokenStore(logger domain.Logger) *MemoryTokenStore {
	store := &MemoryTokenStore{
		tokens: make(map[string]*domain.ProspectToken),
		stop:   make(chan struct{}),
		logger: logger,
	}

	go store.sweepLoop()

	return store
}

// Save persiste um token de prospecto.
func (s *MemoryTokenStore) Save(ctx context.Context, token *domain.ProspectToken) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	tokenCopy := *token
	s.tokens[token.Token] = &tokenCopy
	return nil
}

// Validate verifica a existência e a validade de um token.
func (s *MemoryTokenStore) Validate(ctx context.Context, token string) (*domain.ProspectToken, error) {
	s.mutex.RLock()
	record, exists := s.tokens[token]
	s.mutex.RUnlock()

	if !exists {
		return nil, domain.ErrProspectTokenNotFound
	}

	if time.Now().After(record.ExpiresAt) {
		s.mutex.Lock()
		delete(s.tokens, token)
		s.mutex.Unlock()
		return nil, domain.ErrProspectTokenExpired
	}

	result := *record
	return &result, nil
}

// Revoke remove um token antes da expiração.
func (s *MemoryTokenStore) Revoke(ctx context.Context, token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.tokens, token)
	return nil
}

// Close interrompe a limpeza em background.
func (s *MemoryTokenStore) Close() error {
	s.once.Do(func() {
		close(s.stop)
	})
	return nil
}

// sweepLoop remove tokens expirados periodicamente.
func (s *MemoryTokenStore) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryTokenStore) sweep() {
	now := time.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for token, record := range s.tokens {
		if now.After(record.ExpiresAt) {
			delete(s.tokens, token)
		}
	}
}
