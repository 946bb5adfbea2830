package storage

import (
	"context"
	"testing"
	"time"

	"edge-gate/internal/domain"
	"edge-gate/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryStorage(t *testing.T) *MemoryStorage {
	t.Helper()
	testLogger := logger.NewLogger("error", "text")
	storage := NewMemoryStorage(testLogger)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

func TestMemoryStorage_Take_FreshWindow(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	entry, err := storage.Take(ctx, "login:192.168.1.1", 5, time.Minute, time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
	assert.Nil(t, entry.BlockedUntil)
	assert.WithinDuration(t, time.Now().Add(time.Minute), entry.WindowResetAt, time.Second)
}

func TestMemoryStorage_Take_IncrementsWithinWindow(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		entry, err := storage.Take(ctx, "read:10.0.0.1", 10, time.Minute, 0)
		require.NoError(t, err)
		assert.Equal(t, i, entry.Count)
	}
}

func TestMemoryStorage_Take_BlocksWhenLimitExceeded(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	var entry *domain.RateLimitEntry
	var err error
	for i := 0; i < 3; i++ {
		entry, err = storage.Take(ctx, "login:1.2.3.4", 2, time.Minute, time.Hour)
		require.NoError(t, err)
	}

	require.NotNil(t, entry.BlockedUntil)
	assert.Equal(t, 3, entry.Count)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *entry.BlockedUntil, time.Second)
}

func TestMemoryStorage_Take_BlockedDoesNotIncrement(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := storage.Take(ctx, "login:1.2.3.4", 2, time.Minute, time.Hour)
		require.NoError(t, err)
	}

	// Com bloqueio ativo o contador congela
	entry, err := storage.Take(ctx, "login:1.2.3.4", 2, time.Minute, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Count)
	assert.True(t, entry.Blocked(time.Now()))
}

func TestMemoryStorage_Take_ExpiredWindowIsReplaced(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	window := 60 * time.Millisecond
	for i := 0; i < 3; i++ {
		_, err := storage.Take(ctx, "read:10.0.0.1", 10, window, 0)
		require.NoError(t, err)
	}

	time.Sleep(90 * time.Millisecond)

	// Janela expirada: entrada substituída, não incrementada
	entry, err := storage.Take(ctx, "read:10.0.0.1", 10, window, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
}

func TestMemoryStorage_Take_IndependentKeys(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := storage.Take(ctx, "login:1.1.1.1", 3, time.Minute, time.Hour)
		require.NoError(t, err)
	}

	entry, err := storage.Take(ctx, "login:2.2.2.2", 3, time.Minute, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
	assert.Nil(t, entry.BlockedUntil)
}

func TestMemoryStorage_Get(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	result, err := storage.Get(ctx, "login:9.9.9.9")
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = storage.Take(ctx, "login:9.9.9.9", 5, time.Minute, 0)
	require.NoError(t, err)

	result, err = storage.Get(ctx, "login:9.9.9.9")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Count)
}

func TestMemoryStorage_Reset(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := storage.Take(ctx, "login:1.2.3.4", 2, time.Minute, time.Hour)
		require.NoError(t, err)
	}

	require.NoError(t, storage.Reset(ctx, "login:1.2.3.4"))

	entry, err := storage.Take(ctx, "login:1.2.3.4", 2, time.Minute, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.Count)
	assert.Nil(t, entry.BlockedUntil)
}

func TestMemoryStorage_Sweep(t *testing.T) {
	storage := newTestMemoryStorage(t)
	ctx := context.Background()

	window := 40 * time.Millisecond

	// Entrada que expira logo
	_, err := storage.Take(ctx, "read:expira", 10, window, 0)
	require.NoError(t, err)

	// Entrada bloqueada por mais tempo: janela expira mas o bloqueio não
	for i := 0; i < 2; i++ {
		_, err = storage.Take(ctx, "login:bloqueado", 1, window, time.Hour)
		require.NoError(t, err)
	}

	// Entrada com janela longa, ainda vigente
	_, err = storage.Take(ctx, "read:vigente", 10, time.Hour, 0)
	require.NoError(t, err)

	time.Sleep(70 * time.Millisecond)
	storage.sweep()

	assert.Equal(t, 2, storage.Len())

	expired, err := storage.Get(ctx, "read:expira")
	require.NoError(t, err)
	assert.Nil(t, expired)

	blocked, err := storage.Get(ctx, "login:bloqueado")
	require.NoError(t, err)
	assert.NotNil(t, blocked)
}

func TestMemoryStorage_CloseIsIdempotent(t *testing.T) {
	testLogger := logger.NewLogger("error", "text")
	storage := NewMemoryStorage(testLogger)

	assert.NoError(t, storage.Close())
	assert.NoError(t, storage.Close())
}

func TestMemoryStorage_Health(t *testing.T) {
	storage := newTestMemoryStorage(t)
	assert.NoError(t, storage.Health(context.Background()))
}
