// Package config loads settings in three layers: built-in defaults, an
// optional YAML file, then environment variables (highest priority).
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML file location.
const ConfigPathEnvVar = "CONFIG_PATH"

var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Mail     MailConfig     `koanf:"mail"`
	Limits   LimitsConfig   `koanf:"limits"`
	Logging  LoggingConfig  `koanf:"logging"`
	Import   ImportConfig   `koanf:"import"`
}

type ServerConfig struct {
	Port    int    `koanf:"port"`
	GinMode string `koanf:"gin_mode"`
	SiteURL string `koanf:"site_url"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	URL    string `koanf:"url"`
	Debug  bool   `koanf:"debug"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// MailConfig holds SMTP settings. Delivery is log-only while Host is empty.
type MailConfig struct {
	Host     string `koanf:"host"`
	Port     string `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
}

type LimitsConfig struct {
	UsernameMaxLength int `koanf:"username_max_length"`
	EmailMaxLength    int `koanf:"email_max_length"`
	PageSize          int `koanf:"page_size"`
	MaxPageSize       int `koanf:"max_page_size"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ImportConfig struct {
	DataDir string `koanf:"data_dir"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			GinMode: "release",
			SiteURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Driver: DriverPostgres,
			URL:    "host=localhost user=postgres password=postgres dbname=yamdb port=5432 sslmode=disable",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Limits: LimitsConfig{
			UsernameMaxLength: 150,
			EmailMaxLength:    254,
			PageSize:          10,
			MaxPageSize:       100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Import: ImportConfig{
			DataDir: "static/data",
		},
	}
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Read builds the configuration without validating it. The operator CLI uses
// it since it needs only the database settings.
func Read() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envMappings = map[string]string{
	"port":                "server.port",
	"gin_mode":            "server.gin_mode",
	"site_url":            "server.site_url",
	"store_driver":        "database.driver",
	"database_url":        "database.url",
	"database_debug":      "database.debug",
	"jwt_secret":          "auth.jwt_secret",
	"token_ttl":           "auth.token_ttl",
	"smtp_host":           "mail.host",
	"smtp_port":           "mail.port",
	"smtp_user":           "mail.user",
	"smtp_pass":           "mail.password",
	"smtp_from":           "mail.from",
	"username_max_length": "limits.username_max_length",
	"email_max_length":    "limits.email_max_length",
	"page_size":           "limits.page_size",
	"max_page_size":       "limits.max_page_size",
	"log_level":           "logging.level",
	"log_format":          "logging.format",
	"data_dir":            "import.data_dir",
}

// envTransformFunc maps PORT, SMTP_HOST and friends onto config paths.
// Unknown variables are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test, got %q", c.Server.GinMode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	l := c.Limits
	if l.UsernameMaxLength <= 0 || l.EmailMaxLength <= 0 {
		return fmt.Errorf("field length limits must be positive")
	}
	if l.PageSize <= 0 || l.MaxPageSize < l.PageSize {
		return fmt.Errorf("PAGE_SIZE must be positive and not above MAX_PAGE_SIZE")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.Port != "" && c.Mail.From != ""
}
