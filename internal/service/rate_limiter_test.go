package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"edge-gate/internal/domain"
	"edge-gate/internal/logger"
	"edge-gate/internal/storage"
)

// MockStorage é um mock do RateLimiterStorage para testes de caminho de erro
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Take(ctx context.Context, key string, limit int, window, blockDuration time.Duration) (*domain.RateLimitEntry, error) {
	args := m.Called(ctx, key, limit, window, blockDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateLimitEntry), args.Error(1)
}

func (m *MockStorage) Get(ctx context.Context, key string) (*domain.RateLimitEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateLimitEntry), args.Error(1)
}

func (m *MockStorage) Reset(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockStorage) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newTestService(t *testing.T, policies map[string]domain.RateLimitPolicy) domain.RateLimiterService {
	t.Helper()
	testLogger := logger.NewLogger("error", "text")
	memStorage := storage.NewMemoryStorage(testLogger)
	svc := NewRateLimiterService(memStorage, policies, testLogger)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestRateLimiterService_Check_AllowsUpToLimit(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	policy := domain.RateLimitPolicy{
		Name:          "read",
		MaxRequests:   5,
		Window:        time.Minute,
		BlockDuration: time.Hour,
	}

	// Exatamente maxRequests chamadas permitidas, remaining decrescente
	for i := 1; i <= 5; i++ {
		result, err := svc.Check(ctx, "read:192.168.1.1", policy)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "call %d should be allowed", i)
		assert.Equal(t, 5-i, result.Remaining, "call %d remaining", i)
	}

	// A chamada seguinte dentro da mesma janela é negada
	result, err := svc.Check(ctx, "read:192.168.1.1", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestRateLimiterService_Check_LoginScenario(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	policy := domain.RateLimitPolicy{
		Name:          "login",
		MaxRequests:   5,
		Window:        15 * time.Minute,
		BlockDuration: time.Hour,
	}

	// Chamadas 1-5 permitidas
	for i := 1; i <= 5; i++ {
		result, err := svc.Check(ctx, "login:1.2.3.4", policy)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "call %d", i)
	}

	// Chamada 6 negada e entra em bloqueio
	result, err := svc.Check(ctx, "login:1.2.3.4", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	require.NotNil(t, result.BlockedUntil)

	// Chamada 7 imediatamente depois continua negada (estado bloqueado)
	result, err = svc.Check(ctx, "login:1.2.3.4", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
	assert.Equal(t, *result.BlockedUntil, result.ResetAt)
}

func TestRateLimiterService_Check_BlockOutlivesWindow(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	policy := domain.RateLimitPolicy{
		Name:          "login",
		MaxRequests:   2,
		Window:        60 * time.Millisecond,
		BlockDuration: 400 * time.Millisecond,
	}

	for i := 0; i < 3; i++ {
		_, err := svc.Check(ctx, "login:5.6.7.8", policy)
		require.NoError(t, err)
	}

	// Janela expira, mas o bloqueio é independente dela
	time.Sleep(100 * time.Millisecond)

	result, err := svc.Check(ctx, "login:5.6.7.8", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, 0, result.Remaining)
}

func TestRateLimiterService_Check_AllowedAgainAfterBlockExpires(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	policy := domain.RateLimitPolicy{
		Name:          "login",
		MaxRequests:   2,
		Window:        60 * time.Millisecond,
		BlockDuration: 150 * time.Millisecond,
	}

	for i := 0; i < 3; i++ {
		_, err := svc.Check(ctx, "login:5.6.7.8", policy)
		require.NoError(t, err)
	}

	// Bloqueio e janela expirados: contagem limpa a partir de 1
	time.Sleep(220 * time.Millisecond)

	result, err := svc.Check(ctx, "login:5.6.7.8", policy)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, policy.MaxRequests-1, result.Remaining)
}

func TestRateLimiterService_Check_NoBlockDuration(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	policy := domain.RateLimitPolicy{
		Name:        "read",
		MaxRequests: 2,
		Window:      60 * time.Millisecond,
	}

	for i := 0; i < 2; i++ {
		_, err := svc.Check(ctx, "read:1.1.1.1", policy)
		require.NoError(t, err)
	}

	// Excedeu sem bloqueio rígido: negado dentro da janela
	result, err := svc.Check(ctx, "read:1.1.1.1", policy)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Nil(t, result.BlockedUntil)

	// Janela nova permite de novo
	time.Sleep(90 * time.Millisecond)

	result, err = svc.Check(ctx, "read:1.1.1.1", policy)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestRateLimiterService_Check_IndependentIdentifiers(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	policy := domain.RateLimitPolicy{
		Name:          "login",
		MaxRequests:   2,
		Window:        time.Minute,
		BlockDuration: time.Hour,
	}

	for i := 0; i < 4; i++ {
		_, err := svc.Check(ctx, "login:1.1.1.1", policy)
		require.NoError(t, err)
	}

	// Outro identificador não é influenciado
	result, err := svc.Check(ctx, "login:2.2.2.2", policy)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 1, result.Remaining)
}

func TestRateLimiterService_Check_StorageError(t *testing.T) {
	mockStorage := new(MockStorage)
	testLogger := logger.NewLogger("error", "text")
	svc := NewRateLimiterService(mockStorage, nil, testLogger)

	mockStorage.On("Take", mock.Anything, "login:1.2.3.4", 5, mock.Anything, mock.Anything).
		Return(nil, errors.New("storage unavailable"))

	policy := domain.RateLimitPolicy{Name: "login", MaxRequests: 5, Window: time.Minute}

	_, err := svc.Check(context.Background(), "login:1.2.3.4", policy)
	assert.Error(t, err)
	mockStorage.AssertExpectations(t)
}

func TestRateLimiterService_Policy(t *testing.T) {
	policies := map[string]domain.RateLimitPolicy{
		"login": {Name: "login", MaxRequests: 5, Window: 15 * time.Minute, BlockDuration: time.Hour},
	}
	svc := newTestService(t, policies)

	login := svc.Policy("login")
	assert.Equal(t, 5, login.MaxRequests)

	// Operação desconhecida recebe a política padrão
	unknown := svc.Policy("inexistente")
	assert.Equal(t, "default", unknown.Name)
	assert.Greater(t, unknown.MaxRequests, 0)
}

func TestRateLimiterService_Reset(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	policy := domain.RateLimitPolicy{
		Name:          "login",
		MaxRequests:   1,
		Window:        time.Minute,
		BlockDuration: time.Hour,
	}

	for i := 0; i < 2; i++ {
		_, err := svc.Check(ctx, "login:1.2.3.4", policy)
		require.NoError(t, err)
	}

	require.NoError(t, svc.Reset(ctx, "login:1.2.3.4"))

	result, err := svc.Check(ctx, "login:1.2.3.4", policy)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestBuildIdentifier(t *testing.T) {
	assert.Equal(t, "login:1.2.3.4", BuildIdentifier("login", "1.2.3.4"))
}
