// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type DiscordConfig struct {
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GatewayConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

type EngineConfig struct {
	SessionTTL     time.Duration `yaml:"session_ttl"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`
	ExpiringWindow time.Duration `yaml:"expiring_window"`
	NotifyDebounce time.Duration `yaml:"notify_debounce"`
}

type WebConfig struct {
	Port       int           `yaml:"port"`
	AdminKey   string        `yaml:"admin_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type Config struct {
	Discord  DiscordConfig  `yaml:"discord"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Engine   EngineConfig   `yaml:"engine"`
	Web      WebConfig      `yaml:"web"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = "https://trocador.app/anonpay"
	}
	if cfg.Gateway.Timeout <= 0 {
		cfg.Gateway.Timeout = 30 * time.Second
	}
	if cfg.Gateway.UserAgent == "" {
		cfg.Gateway.UserAgent = "CatPaymentBot/1.0"
	}
	if cfg.Engine.SessionTTL <= 0 {
		cfg.Engine.SessionTTL = 20 * time.Minute
	}
	if cfg.Engine.PollInterval <= 0 {
		cfg.Engine.PollInterval = time.Minute
	}
	if cfg.Engine.SweepInterval <= 0 {
		cfg.Engine.SweepInterval = time.Hour
	}
	if cfg.Engine.ExpiringWindow <= 0 {
		cfg.Engine.ExpiringWindow = 24 * time.Hour
	}
	if cfg.Engine.NotifyDebounce <= 0 {
		cfg.Engine.NotifyDebounce = time.Minute
	}
	if cfg.Web.Port == 0 {
		cfg.Web.Port = 8087
	}
	if cfg.Web.SessionTTL <= 0 {
		cfg.Web.SessionTTL = 30 * time.Minute
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}

	// Minimal validation. Dev mode runs the noop chat adapter and needs no
	// bot token.
	if cfg.Discord.Token == "" && !dev {
		return nil, errors.New("discord.token is required")
	}
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
