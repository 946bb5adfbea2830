package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"edge-gate/internal/domain"

	"github.com/joho/godotenv"
)

// Config representa todas as configurações da aplicação.
type Config struct {
	// Server Configuration
	ServerPort string
	GinMode    string

	// Development mode relaxa o filtro de bots do gate
	DevMode bool

	// Logging Configuration
	LogLevel  string
	LogFormat string

	// Storage Configuration
	StorageType   string // "memory" ou "redis"
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Auth Configuration
	JWTSecret   string
	JWTTTL      time.Duration
	ProspectTTL time.Duration

	// Credenciais administrativas de bootstrap (hash argon2id)
	AdminEmail     string
	AdminSenhaHash string

	// Filtro de bots: lista de assinaturas, substituível via env
	BotDenylist []string

	// Tabela de políticas por operação
	Policies map[string]domain.RateLimitPolicy
}

// defaultBotDenylist são as assinaturas de automação bloqueadas no namespace
// de API quando fora do modo de desenvolvimento.
var defaultBotDenylist = []string{
	"bot", "crawler", "spider", "scraper",
	"curl/", "wget/", "python-requests", "python-urllib",
	"go-http-client", "scrapy", "httpclient", "java/",
}

// Load carrega as configurações do .env e das variáveis de ambiente.
func Load() (*Config, error) {
	// Carrega o arquivo .env se existir
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := &Config{
		ServerPort: getEnvWithDefault("SERVER_PORT", "8080"),
		GinMode:    getEnvWithDefault("GIN_MODE", "debug"),
		DevMode:    getEnvWithDefault("APP_ENV", "production") == "development",

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvWithDefault("LOG_FORMAT", "json"),

		StorageType:   getEnvWithDefault("STORAGE_TYPE", "memory"),
		RedisHost:     getEnvWithDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvWithDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvWithDefault("REDIS_PASSWORD", ""),

		JWTSecret: os.Getenv("JWT_SECRET"),

		AdminEmail:     getEnvWithDefault("ADMIN_EMAIL", ""),
		AdminSenhaHash: getEnvWithDefault("ADMIN_SENHA_HASH", ""),
	}

	redisDB, err := strconv.Atoi(getEnvWithDefault("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB value: %w", err)
	}
	cfg.RedisDB = redisDB

	jwtTTLHours, err := strconv.Atoi(getEnvWithDefault("JWT_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_HOURS value: %w", err)
	}
	cfg.JWTTTL = time.Duration(jwtTTLHours) * time.Hour

	prospectTTLHours, err := strconv.Atoi(getEnvWithDefault("PROSPECT_TTL_HOURS", "48"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROSPECT_TTL_HOURS value: %w", err)
	}
	cfg.ProspectTTL = time.Duration(prospectTTLHours) * time.Hour

	// Lista de bots substituível sem recompilar
	if denylist := os.Getenv("BOT_DENYLIST"); denylist != "" {
		for _, sig := range strings.Split(denylist, ",") {
			if sig = strings.TrimSpace(sig); sig != "" {
				cfg.BotDenylist = append(cfg.BotDenylist, sig)
			}
		}
	} else {
		cfg.BotDenylist = defaultBotDenylist
	}

	policies, err := loadPolicies()
	if err != nil {
		return nil, fmt.Errorf("failed to load rate limit policies: %w", err)
	}
	cfg.Policies = policies

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate valida as configurações obrigatórias. O segredo JWT não tem
// fallback: sem ele a aplicação não sobe.
func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required and has no default")
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must have at least 32 characters, got %d", len(c.JWTSecret))
	}

	if c.StorageType != "memory" && c.StorageType != "redis" {
		return fmt.Errorf("STORAGE_TYPE must be 'memory' or 'redis', got: %s", c.StorageType)
	}

	if c.RedisDB < 0 || c.RedisDB > 15 {
		return fmt.Errorf("REDIS_DB must be between 0 and 15")
	}

	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_HOURS must be greater than 0")
	}

	return nil
}

// loadPolicies monta a tabela de políticas por operação. Cada operação
// protegida declara sua própria tupla (limite, janela, bloqueio, mensagem);
// login aceita override via env por ser o alvo mais sensível.
func loadPolicies() (map[string]domain.RateLimitPolicy, error) {
	loginMax, err := strconv.Atoi(getEnvWithDefault("LOGIN_MAX_REQUESTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_MAX_REQUESTS value: %w", err)
	}
	if loginMax <= 0 {
		return nil, fmt.Errorf("LOGIN_MAX_REQUESTS must be greater than 0")
	}

	loginBlockMin, err := strconv.Atoi(getEnvWithDefault("LOGIN_BLOCK_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_BLOCK_MINUTES value: %w", err)
	}
	if loginBlockMin <= 0 {
		return nil, fmt.Errorf("LOGIN_BLOCK_MINUTES must be greater than 0")
	}

	return map[string]domain.RateLimitPolicy{
		"login": {
			Name:          "login",
			MaxRequests:   loginMax,
			Window:        15 * time.Minute,
			BlockDuration: time.Duration(loginBlockMin) * time.Minute,
			Message:       "too many login attempts, try again later",
		},
		"read": {
			Name:          "read",
			MaxRequests:   100,
			Window:        1 * time.Minute,
			BlockDuration: 5 * time.Minute,
			Message:       "too many requests, slow down",
		},
		"write": {
			Name:          "write",
			MaxRequests:   30,
			Window:        1 * time.Minute,
			BlockDuration: 15 * time.Minute,
			Message:       "too many write operations, try again later",
		},
		"upload": {
			Name:          "upload",
			MaxRequests:   10,
			Window:        1 * time.Hour,
			BlockDuration: 2 * time.Hour,
			Message:       "upload limit reached, try again later",
		},
		"prospect": {
			Name:          "prospect",
			MaxRequests:   20,
			Window:        10 * time.Minute,
			BlockDuration: 30 * time.Minute,
			Message:       "too many requests for this token, try again later",
		},
	}, nil
}

// getEnvWithDefault retorna o valor da variável de ambiente ou um valor padrão.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
