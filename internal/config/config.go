package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken       string `yaml:"telegram_token" env:"TELEGRAM_TOKEN" env-required:"true"`
	DatabaseURL         string `yaml:"database_url" env:"DATABASE_URL" env-default:"task_tracker.db"`
	ReportIntervalHours int    `yaml:"report_interval_hours" env:"REPORT_INTERVAL_HOURS" env-default:"0"`
	ReportTime          string `yaml:"report_time" env:"REPORT_TIME"`
	LogLevel            string `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	Timezone            string `yaml:"timezone" env:"TIMEZONE" env-default:"Local"`
}

// Load reads an optional .env file, then the config file at path if given,
// then the environment. Missing files fall back to the environment alone.
func Load(path string) (Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	var cfg Config
	if err := read(path, &cfg); err != nil {
		return cfg, err
	}

	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.ReportTime = strings.TrimSpace(cfg.ReportTime)

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "task_tracker.db"
	}
	if cfg.ReportIntervalHours < 0 {
		return cfg, fmt.Errorf("REPORT_INTERVAL_HOURS must not be negative")
	}
	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func read(path string, cfg *Config) error {
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("read env: %w", err)
		}
		return nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if err := cleanenv.ReadEnv(cfg); err != nil {
				return fmt.Errorf("read env: %w", err)
			}
			return nil
		}
		return fmt.Errorf("read config %q: %w", path, err)
	}
	return nil
}

// ReportInterval is the period of the digest, zero when disabled.
func (c Config) ReportInterval() time.Duration {
	return time.Duration(c.ReportIntervalHours) * time.Hour
}

func (c Config) Location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	return loc, nil
}
