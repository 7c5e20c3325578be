// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

type Config struct {
	Port            int           `env:"PORT" envDefault:"8080" validate:"min=1,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info" validate:"required"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	SendBuffer      int           `env:"SEND_BUFFER" envDefault:"64" validate:"min=1"`
	ReadLimit       int64         `env:"READ_LIMIT" envDefault:"4096" validate:"min=64"`
	PongWait        time.Duration `env:"PONG_WAIT" envDefault:"60s" validate:"gt=0"`
	WriteWait       time.Duration `env:"WRITE_WAIT" envDefault:"10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	NATSURL         string        `env:"NATS_URL" validate:"omitempty,url"`
	NATSSubject     string        `env:"NATS_SUBJECT" envDefault:"chess.sessions" validate:"required"`
}

// Load reads the given dotenv files, skipping missing ones, then parses the
// environment. Variables already set win over dotenv values.
func Load(dotenv ...string) (Config, error) {
	for _, path := range dotenv {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the parsed values. Errors name the offending struct
// field, e.g. Port or WriteWait.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
