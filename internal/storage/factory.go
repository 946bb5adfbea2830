package storage

import (
	"fmt"
	"strings"

	"edge-gate/internal/domain"
)

// StorageType define os tipos de storage disponíveis
type StorageType string

const (
	RedisStorageType  StorageType = "redis"
	MemoryStorageType StorageType = "memory"
)

// StorageConfig contém configurações para criação de storage
type StorageConfig struct {
	Type        StorageType
	RedisConfig *RedisConfig
}

// RedisConfig contém configurações específicas do Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	Database int
}

// StorageFactory cria instâncias de storage seguindo Strategy Pattern.
type StorageFactory struct{}

// NewStorageFactory cria uma nova instância da factory
func NewStorageFactory() *StorageFactory {
	return &StorageFactory{}
}

// CreateRateLimiterStorage cria o storage do rate limiter conforme a
// configuração.
func (f *StorageFactory) CreateRateLimiterStorage(config *StorageConfig, logger domain.Logger) (domain.RateLimiterStorage, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config cannot be nil")
	}

	switch strings.ToLower(string(config.Type)) {
	case string(RedisStorageType):
		if err := f.validateRedisConfig(config.RedisConfig); err != nil {
			return nil, err
		}
		return NewRedisStorage(
			config.RedisConfig.Host,
			config.RedisConfig.Port,
			config.RedisConfig.Password,
			config.RedisConfig.Database,
			logger,
		)
	case string(MemoryStorageType):
		return NewMemoryStorage(logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// CreateTokenStore cria o store de tokens de prospecto conforme a
// configuração, usando o mesmo backend do rate limiter.
func (f *StorageFactory) CreateTokenStore(config *StorageConfig, logger domain.Logger) (domain.TokenStore, error) {
	if config == nil {
		return nil, fmt.Errorf("storage config cannot be nil")
	}

	switch strings.ToLower(string(config.Type)) {
	case string(RedisStorageType):
		if err := f.validateRedisConfig(config.RedisConfig); err != nil {
			return nil, err
		}
		return NewRedisTokenStore(
			config.RedisConfig.Host,
			config.RedisConfig.Port,
			config.RedisConfig.Password,
			config.RedisConfig.Database,
			logger,
		)
	case string(MemoryStorageType):
		return NewMemoryTokenStore(logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}

// validateRedisConfig valida configuração do Redis
func (f *StorageFactory) validateRedisConfig(config *RedisConfig) error {
	if config == nil {
		return fmt.Errorf("redis config cannot be nil")
	}

	if config.Host == "" {
		return fmt.Errorf("redis host cannot be empty")
	}

	if config.Port == "" {
		return fmt.Errorf("redis port cannot be empty")
	}

	if config.Database < 0 || config.Database > 15 {
		return fmt.Errorf("redis database must be between 0 and 15, got: %d", config.Database)
	}

	return nil
}
