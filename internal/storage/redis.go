package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edge-gate/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisStorage implementa domain.RateLimiterStorage usando Redis, para
// deployments com mais de uma instância atrás do load balancer.
type RedisStorage struct {
	client redis.Cmdable
	logger domain.Logger
}

// wireEntry é a representação persistida no Redis, com timestamps em
// milissegundos epoch para o script Lua operar com aritmética simples.
type wireEntry struct {
	Count         int   `json:"count"`
	WindowResetAt int64 `json:"windowResetAt"`
	BlockedUntil  int64 `json:"blockedUntil,omitempty"`
}

// takeScript aplica atomicamente a transição janela-deslizante + bloqueio.
// Bloqueio ativo tem precedência e não incrementa; janela expirada substitui
// a entrada em vez de incrementar.
const takeScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local block = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local raw = redis.call('GET', key)
local e = nil
if raw then
	e = cjson.decode(raw)
end

if e and e.blockedUntil and now < e.blockedUntil then
	return raw
end

if (not e) or now >= e.windowResetAt then
	e = { count = 1, windowResetAt = now + window }
else
	e.count = e.count + 1
	if e.count > limit and block > 0 then
		e.blockedUntil = now + block
	end
end

local ttl = e.windowResetAt - now
if e.blockedUntil and (e.blockedUntil - now) > ttl then
	ttl = e.blockedUntil - now
end
if ttl <= 0 then
	ttl = window
end

local encoded = cjson.encode(e)
redis.call('SET', key, encoded, 'PX', math.ceil(ttl))
return encoded
`

// NewRedisStorage cria uma nova instância do RedisStorage.
func NewRedisStorage(host, port, password string, db int, logger domain.Logger) (*RedisStorage, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,

		PoolSize:     20,
		MinIdleConns: 5,
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

	logger.Info("Redis connection established", map[string]interface{}{
		"host": host,
		"port": port,
		"db":   db,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}, nil
}

// Take aplica a transição janela + bloqueio via script Lua atômico.
func (r *RedisStorage) Take(ctx context.Context, key string, limit int, window, blockDuration time.Duration) (*domain.RateLimitEntry, error) {
	now := time.Now().UnixMilli()

	result, err := r.client.Eval(ctx, takeScript, []string{key},
		limit, window.Milliseconds(), blockDuration.Milliseconds(), now).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to take key %s: %w", key, err)
	}

	raw, ok := result.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected take result type for key %s", key)
	}

	var wire wireEntry
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry for key %s: %w", key, err)
	}

	return wire.toEntry(key), nil
}

// Get recupera a entrada atual de uma chave.
func (r *RedisStorage) Get(ctx context.Context, key string) (*domain.RateLimitEntry, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	var wire wireEntry
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry for key %s: %w", key, err)
	}

	return wire.toEntry(key), nil
}

// Reset limpa os dados de uma chave.
func (r *RedisStorage) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to reset key %s: %w", key, err)
	}
	return nil
}

// Health verifica se o storage está saudável.
func (r *RedisStorage) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Close fecha a conexão com o Redis. A expiração de entradas fica por conta
// dos TTLs, não há limpeza em background para interromper.
func (r *RedisStorage) Close() error {
	if client, ok := r.client.(*redis.Client); ok {
		if err := client.Close(); err != nil {
			r.logger.Error("Failed to close Redis connection", err, nil)
			return err
		}
		r.logger.Info("Redis connection closed", nil)
	}
	return nil
}

// toEntry converte a representação de wire para a entidade de domínio.
func (w *wireEntry) toEntry(key string) *domain.RateLimitEntry {
	entry := &domain.RateLimitEntry{
		Key:           key,
		Count:         w.Count,
		WindowResetAt: time.UnixMilli(w.WindowResetAt),
	}
	if w.BlockedUntil > 0 {
		blockedUntil := time.UnixMilli(w.BlockedUntil)
		entry.BlockedUntil = &blockedUntil
	}
	return entry
}
