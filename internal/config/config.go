// Package config loads projecthub configuration from an optional YAML file and
// environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/yukikurage/projecthub/internal/constants"
)

const maxConfigFileSize = 1024 * 1024

type ServerConfig struct {
	Port    string `koanf:"port"`
	GinMode string `koanf:"mode"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver"`
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	// Path is the database file used by the sqlite driver.
	Path string `koanf:"path"`
}

type RedisConfig struct {
	Host string `koanf:"host"`
	Port string `koanf:"port"`
}

type SessionConfig struct {
	Secret string        `koanf:"secret"`
	MaxAge time.Duration `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type SlugConfig struct {
	MaxAttempts int `koanf:"max_attempts"`
}

type OpenAIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
	// RateLimit is the number of requests per second allowed against the API.
	RateLimit float64 `koanf:"rate_limit"`
}

type Config struct {
	Server  ServerConfig   `koanf:"server"`
	DB      DatabaseConfig `koanf:"db"`
	Redis   RedisConfig    `koanf:"redis"`
	Session SessionConfig  `koanf:"session"`
	Log     LogConfig      `koanf:"log"`
	Slug    SlugConfig     `koanf:"slug"`
	OpenAI  OpenAIConfig   `koanf:"openai"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    "8080",
			GinMode: "debug",
		},
		DB: DatabaseConfig{
			Driver:   "mysql",
			Host:     "localhost",
			Port:     "3306",
			User:     "projectuser",
			Password: "projectpassword",
			Name:     "projecthub",
			Path:     "projecthub.db",
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: "6379",
		},
		Session: SessionConfig{
			Secret: "default-secret-key-change-me",
			MaxAge: 7 * 24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Slug: SlugConfig{
			MaxAttempts: constants.DefaultSlugMaxAttempts,
		},
		OpenAI: OpenAIConfig{
			Model:     "gpt-4o",
			RateLimit: 1,
		},
	}
}

// Load reads configuration with the following precedence (highest first):
//  1. Environment variables (DB_HOST -> db.host, SERVER_MODE -> server.mode,
//     OPENAI_API_KEY -> openai.api_key)
//  2. YAML file at path, when path is non-empty
//  3. Default()
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envKey maps SECTION_FIELD_NAME to section.field_name, splitting on the first underscore.
func envKey(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// Validate checks the configuration for values the server cannot start with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.DB.Driver)
	}

	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("gin mode must be debug, release or test, got %q", c.Server.GinMode)
	}

	if c.Log.Format != "json" && c.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Log.Format)
	}

	if c.Slug.MaxAttempts < 1 {
		return fmt.Errorf("slug max attempts must be >= 1, got %d", c.Slug.MaxAttempts)
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("session secret cannot be empty")
	}

	return nil
}

// DSN returns the driver specific connection string.
func (db *DatabaseConfig) DSN() string {
	switch db.Driver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			db.User, db.Password, db.Host, db.Port, db.Name)
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			db.Host, db.Port, db.User, db.Password, db.Name)
	case "sqlite":
		return db.Path
	default:
		return ""
	}
}

// IsProduction reports whether the server runs in gin release mode.
func (c *Config) IsProduction() bool {
	return c.Server.GinMode == "release"
}
