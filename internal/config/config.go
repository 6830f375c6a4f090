package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/quizmas.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR"`

	// RedisURL enables cross-instance fan-out of room changes when set.
	RedisURL     string `env:"REDIS_URL"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"quizmas:rooms"`

	RoomTTL       time.Duration `env:"ROOM_TTL" envDefault:"12h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
	TxnRetries    int           `env:"TXN_RETRIES" envDefault:"32"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.TxnRetries < 1 {
		return nil, fmt.Errorf("TXN_RETRIES must be at least 1, got %d", cfg.TxnRetries)
	}
	if cfg.RoomTTL > 0 && cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive when ROOM_TTL is set, got %s", cfg.SweepInterval)
	}
	return &cfg, nil
}
