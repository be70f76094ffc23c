package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"oauthd/internal/models"
)

// Config represents the complete server configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Redis     RedisConfig     `toml:"redis"`
	Tokens    TokenConfig     `toml:"tokens"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	Scopes    []models.Scope  `toml:"scopes"`
}

// ServerConfig contains HTTP listener and URL settings
type ServerConfig struct {
	Port     int    `toml:"port"`
	BaseURL  string `toml:"base_url"`
	LoginURL string `toml:"login_url"` // where unauthenticated authorize requests are sent
}

// DatabaseConfig contains Postgres settings
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// RedisConfig contains cache settings
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// TokenConfig contains token lifetime settings
type TokenConfig struct {
	AccessTTLSeconds int `toml:"access_ttl_seconds"`
	CodeTTLSeconds   int `toml:"code_ttl_seconds"`
	PurgeMinutes     int `toml:"purge_minutes"`
}

// RateLimitConfig contains token endpoint throttling settings
type RateLimitConfig struct {
	Limit         int `toml:"limit"`
	WindowSeconds int `toml:"window_seconds"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			BaseURL:  "http://localhost:8080",
			LoginURL: "http://localhost:8080/login",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Tokens: TokenConfig{
			AccessTTLSeconds: 3600,
			CodeTTLSeconds:   600,
			PurgeMinutes:     15,
		},
		RateLimit: RateLimitConfig{
			Limit:         60,
			WindowSeconds: 60,
		},
		Scopes: []models.Scope{
			{Name: "read", Description: "Read your account data", Default: true},
			{Name: "write", Description: "Modify your account data"},
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults for
// missing sections, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database URL is required (set DATABASE_URL or database.url)")
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("LOGIN_URL"); v != "" {
		c.Server.LoginURL = v
	}
}
