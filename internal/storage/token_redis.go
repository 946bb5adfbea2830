package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edge-gate/internal/domain"

	"github.com/go-redis/redis/v8"
)

// tokenKeyPrefix padroniza as chaves de tokens de prospecto no Redis.
const tokenKeyPrefix = "prospect_token:"

// RedisTokenStore implementa domain.TokenStore sobre Redis. A expiração fica
// por conta do TTL da chave.
type RedisTokenStore struct {
	client redis.Cmdable
	logger domain.Logger
}

// NewRedisTokenStore cria um store de tokens de prospecto com conexão
// própria ao Redis.
func NewRedisTokenStore(host, port, password string, db int, logger domain.Logger) (*RedisTokenStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisTokenStore{
		client: rdb,
		logger: logger,
	}, nil
}

// Save persiste um token de prospecto com TTL até a expiração.
func (s *RedisTokenStore) Save(ctx context.Context, token *domain.ProspectToken) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal prospect token: %w", err)
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return domain.ErrProspectTokenExpired
	}

	if err := s.client.Set(ctx, tokenKeyPrefix+token.Token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save prospect token: %w", err)
	}
	return nil
}

// Validate verifica a existência e a validade de um token.
func (s *RedisTokenStore) Validate(ctx context.Context, token string) (*domain.ProspectToken, error) {
	raw, err := s.client.Get(ctx, tokenKeyPrefix+token).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, domain.ErrProspectTokenNotFound
		}
		return nil, fmt.Errorf("failed to get prospect token: %w", err)
	}

	var record domain.ProspectToken
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prospect token: %w", err)
	}

	// O TTL já expira a chave; a checagem cobre relógios dessincronizados
	if time.Now().After(record.ExpiresAt) {
		return nil, domain.ErrProspectTokenExpired
	}

	return &record, nil
}

// Revoke remove um token antes da expiração.
func (s *RedisTokenStore) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, tokenKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("failed to revoke prospect token: %w", err)
	}
	return nil
}

// Close fecha a conexão com o Redis.
func (s *RedisTokenStore) Close() error {
	if client, ok := s.client.(*redis.Client); ok {
		return client.Close()
	}
	return nil
}
