package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config centraliza la configuración del harness y de la API.
type Config struct {
	FuzzRounds      int    `env:"FUZZ_ROUNDS" envDefault:"10000"`
	ReverseAttempts int    `env:"REVERSE_ATTEMPTS" envDefault:"50000"`
	Seed            uint64 `env:"FUZZ_SEED" envDefault:"0"` // 0 = semilla aleatoria por corrida
	ContentPath     string `env:"QUIZ_CONTENT_PATH"`

	HTTPPort       string `env:"HTTP_PORT" envDefault:"8080"`
	APIMaxRounds   int    `env:"API_MAX_ROUNDS" envDefault:"100000"`
	APIMaxAttempts int    `env:"API_MAX_ATTEMPTS" envDefault:"200000"`
	AuditRateLimit int    `env:"AUDIT_RATE_LIMIT" envDefault:"30"` // corridas por cliente y ventana; 0 = sin limite
	AuditRateSecs  int    `env:"AUDIT_RATE_WINDOW_SECONDS" envDefault:"60"`

	DatabaseURL     string `env:"DATABASE_URL"`
	RedisAddr       string `env:"REDIS_ADDR"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	AuditTTLMinutes int    `env:"AUDIT_TTL_MINUTES" envDefault:"1440"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rechaza conteos que harian la corrida vacia o sin sentido.
func (c *Config) Validate() error {
	if c.FuzzRounds <= 0 {
		return fmt.Errorf("%w: FUZZ_ROUNDS must be positive, got %d", ErrInvalidConfig, c.FuzzRounds)
	}
	if c.ReverseAttempts < 0 {
		return fmt.Errorf("%w: REVERSE_ATTEMPTS must not be negative, got %d", ErrInvalidConfig, c.ReverseAttempts)
	}
	if c.AuditRateLimit < 0 {
		return fmt.Errorf("%w: AUDIT_RATE_LIMIT must not be negative, got %d", ErrInvalidConfig, c.AuditRateLimit)
	}
	if c.APIMaxRounds < c.FuzzRounds {
		return fmt.Errorf("%w: API_MAX_ROUNDS (%d) below FUZZ_ROUNDS (%d)", ErrInvalidConfig, c.APIMaxRounds, c.FuzzRounds)
	}
	if c.APIMaxAttempts < c.ReverseAttempts {
		return fmt.Errorf("%w: API_MAX_ATTEMPTS (%d) below REVERSE_ATTEMPTS (%d)", ErrInvalidConfig, c.APIMaxAttempts, c.ReverseAttempts)
	}
	return nil
}
