package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Duration acepta "10s", "5m" o un número pelado de segundos ("10" -> 10s).
// Implementa cleanenv.Setter.
type Duration time.Duration

func (d *Duration) SetValue(data string) error {
	v, err := parseDuration(data)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

type Config struct {
	App  AppConfig
	HTTP HTTPConfig
	DB   DBConfig
	Log  LogConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" env-default:"petstore"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
}

type HTTPConfig struct {
	Port         string   `env:"PORT" env-default:"8080"`
	ReadTimeout  Duration `env:"HTTP_READ_TIMEOUT" env-default:"5s"`
	WriteTimeout Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

func (h HTTPConfig) Addr() string {
	return ":" + strings.TrimPrefix(strings.TrimSpace(h.Port), ":")
}

type DBConfig struct {
	// sqlite:///petstore.db | postgres://... | memory://
	URL      string `env:"DATABASE_URL" env-default:"sqlite:///petstore.db"`
	MaxConns int32  `env:"DB_MAX_CONNS" env-default:"10"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if strings.TrimSpace(cfg.DB.URL) == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.DB.MaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive, got %d", cfg.DB.MaxConns)
	}
	return cfg, nil
}
