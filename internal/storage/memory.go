package storage

import (
	"context"
	"sync"
	"time"

	"edge-gate/internal/domain"
)

// sweepInterval é o intervalo da limpeza periódica de entradas expiradas.
const sweepInterval = 1 * time.Minute

// MemoryStorage implementa domain.RateLimiterStorage usando memória.
// Adequado para deployment de processo único; o mutex garante que a sequência
// verificar-incrementar-bloquear de uma chave seja atômica entre requisições
// concorrentes.
type MemoryStorage struct {
	data   map[string]*domain.RateLimitEntry
	mutex  sync.RWMutex
	stop   chan struct{}
	once   sync.Once
	logger domain.Logger
}

// NewMemoryStorage cria uma nova instância do MemoryStorage e inicia a
// goroutine de limpeza.
func NewMemoryStorage(logger domain.Logger) *MemoryStorage {
	storage := &MemoryStorage{
		data:   make(map[string]*domain.RateLimitEntry),
		stop:   make(chan struct{}),
		logger: logger,
	}

	go storage.sweepLoop()

	if logger != nil {
		logger.Info("Memory storage initialized", nil)
	}

	return storage
}

// Take aplica a transição janela + bloqueio para uma chave.
func (m *MemoryStorage) Take(ctx context.Context, key string, limit int, window, blockDuration time.Duration) (*domain.RateLimitEntry, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := time.Now()
	entry, exists := m.data[key]

	// Bloqueio ativo tem precedência total: não incrementa o contador
	if exists && entry.Blocked(now) {
		result := *entry
		return &result, nil
	}

	// Janela inexistente ou expirada: a entrada antiga é substituída, nunca
	// incrementada
	if !exists || !now.Before(entry.WindowResetAt) {
		entry = &domain.RateLimitEntry{
			Key:           key,
			Count:         1,
			WindowResetAt: now.Add(window),
		}
		m.data[key] = entry
		result := *entry
		return &result, nil
	}

	entry.Count++

	// Excedeu o limite com bloqueio configurado: entra em estado bloqueado,
	// independente de resets de janela
	if entry.Count > limit && blockDuration > 0 {
		blockedUntil := now.Add(blockDuration)
		entry.BlockedUntil = &blockedUntil
	}

	result := *entry
	return &result, nil
}

// Get recupera a entrada atual de uma chave.
func (m *MemoryStorage) Get(ctx context.Context, key string) (*domain.RateLimitEntry, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	entry, exists := m.data[key]
	if !exists {
		return nil, nil
	}

	// Cópia para evitar modificações concorrentes
	result := *entry
	return &result, nil
}

// Reset limpa os dados de uma chave.
func (m *MemoryStorage) Reset(ctx context.Context, key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.data, key)
	return nil
}

// Health verifica se o storage está saudável.
func (m *MemoryStorage) Health(ctx context.Context) error {
	m.mutex.RLock()
	size := len(m.data)
	m.mutex.RUnlock()

	if m.logger != nil {
		m.logger.Debug("Memory storage health check", map[string]interface{}{
			"entries": size,
		})
	}
	return nil
}

// Close interrompe a limpeza em background e descarta os dados.
func (m *MemoryStorage) Close() error {
	m.once.Do(func() {
		close(m.stop)
	})

	m.mutex.Lock()
	m.data = make(map[string]*domain.RateLimitEntry)
	m.mutex.Unlock()

	if m.logger != nil {
		m.logger.Info("Memory storage closed", nil)
	}
	return nil
}

// sweepLoop remove entradas expiradas periodicamente.
func (m *MemoryStorage) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stop:
			return
		}
	}
}

// sweep remove entradas cuja janela E bloqueio expiraram. O lock não é
// mantido durante a varredura inteira: primeiro coleta candidatos sob RLock,
// depois remove cada um em seções críticas curtas, revalidando.
func (m *MemoryStorage) sweep() {
	now := time.Now()

	m.mutex.RLock()
	candidates := make([]string, 0)
	for key, entry := range m.data {
		if entry.Expired(now) {
			candidates = append(candidates, key)
		}
	}
	m.mutex.RUnlock()

	removed := 0
	for _, key := range candidates {
		m.mutex.Lock()
		if entry, exists := m.data[key]; exists && entry.Expired(now) {
			delete(m.data, key)
			removed++
		}
		m.mutex.Unlock()
	}

	if removed > 0 && m.logger != nil {
		m.logger.Debug("Memory storage sweep completed", map[string]interface{}{
			"removed": removed,
		})
	}
}

// Len retorna a quantidade de entradas rastreadas.
func (m *MemoryStorage) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.data)
}
