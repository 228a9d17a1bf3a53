package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config drives the client SDK and casinoctl.
type Config struct {
	Env         string        `env:"CASINO_ENV" envDefault:"development"`
	BaseURL     string        `env:"CASINO_BASE_URL,required"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"0s"`

	SessionStore   string        `env:"SESSION_STORE" envDefault:"file"`
	SessionFile    string        `env:"SESSION_FILE" envDefault:".casino-session.json"`
	SessionProfile string        `env:"SESSION_PROFILE" envDefault:"default"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	RedisURL  string `env:"REDIS_URL" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
}

// SandboxConfig drives the in-memory platform served by cmd/sandbox.
type SandboxConfig struct {
	Env           string        `env:"ENV" envDefault:"development"`
	Port          string        `env:"PORT" envDefault:"8080"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AdminEmail    string        `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	Currency      string        `env:"CURRENCY" envDefault:"PKR"`

	// New players start KYC-approved so withdrawals can be exercised without a KYC flow.
	AutoApproveKYC bool `env:"SANDBOX_AUTO_KYC" envDefault:"true"`
	// Wagering target created on deposit approval, as a multiple of the deposit.
	DepositWageringMultiplier float64 `env:"DEPOSIT_WAGERING_MULTIPLIER" envDefault:"1"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("CASINO_BASE_URL is empty")
	}

	switch cfg.SessionStore {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return nil, fmt.Errorf("unknown session store: %s", cfg.SessionStore)
	}

	return cfg, nil
}

func LoadSandbox() (*SandboxConfig, error) {
	cfg := &SandboxConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse sandbox config: %w", err)
	}
	return cfg, nil
}
