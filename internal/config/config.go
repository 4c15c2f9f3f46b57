// Package config loads server configuration from a YAML file with
// environment-variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	OAuth    OAuthConfig    `yaml:"oauth"`
	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP listener settings and public base URLs.
type ServerConfig struct {
	Addr string `yaml:"addr"` // Listen address, e.g. ":8080".
	// WebBaseURL is the client application origin used in emailed links.
	WebBaseURL string `yaml:"web_base_url"`
	// APIBaseURL is this server's public origin used for uploaded file URLs.
	APIBaseURL string `yaml:"api_base_url"`
}

// DatabaseConfig holds the connection string.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig holds token secrets and lifetimes.
type JWTConfig struct {
	AccessSecret  string        `yaml:"access_secret"`
	RefreshSecret string        `yaml:"refresh_secret"`
	AccessExpiry  time.Duration `yaml:"access_expiry"`
	RefreshExpiry time.Duration `yaml:"refresh_expiry"`
}

// OAuthConfig holds the Google OAuth client settings.
type OAuthConfig struct {
	GoogleClientID     string `yaml:"google_client_id"`
	GoogleClientSecret string `yaml:"google_client_secret"`
	GoogleRedirectURL  string `yaml:"google_redirect_url"`
}

// LLMConfig holds the receipt-extraction / insight model settings.
type LLMConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// StorageConfig holds receipt image storage settings.
type StorageConfig struct {
	Dir string `yaml:"dir"` // Local directory for uploaded images.
}

// SMTPConfig holds outbound mail settings. Empty host disables mail.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// RedisConfig holds rate-limiter settings. Empty addr disables limiting.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`       // logrus level name.
	File       string `yaml:"file"`        // Log file path; empty logs to stderr.
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate after this size.
	MaxBackups int    `yaml:"max_backups"` // Rotated files to retain.
}

// Load reads a YAML config file, applies environment overrides and defaults.
// A missing file is not an error; env vars alone can configure the server.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, errRead := os.ReadFile(path)
		if errRead != nil && !os.IsNotExist(errRead) {
			return nil, fmt.Errorf("config: read %s: %w", path, errRead)
		}
		if errRead == nil {
			if errParse := yaml.Unmarshal(data, cfg); errParse != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, errParse)
			}
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("config: database dsn is required")
	}
	if cfg.JWT.AccessSecret == "" || cfg.JWT.RefreshSecret == "" {
		return nil, fmt.Errorf("config: jwt secrets are required")
	}
	return cfg, nil
}

// applyEnv overrides config fields from EXPENSO_* environment variables.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Addr, "EXPENSO_ADDR")
	setString(&cfg.Server.WebBaseURL, "EXPENSO_WEB_BASE_URL")
	setString(&cfg.Server.APIBaseURL, "EXPENSO_API_BASE_URL")
	setString(&cfg.Database.DSN, "EXPENSO_DSN")
	setString(&cfg.JWT.AccessSecret, "EXPENSO_JWT_ACCESS_SECRET")
	setString(&cfg.JWT.RefreshSecret, "EXPENSO_JWT_REFRESH_SECRET")
	setString(&cfg.OAuth.GoogleClientID, "EXPENSO_GOOGLE_CLIENT_ID")
	setString(&cfg.OAuth.GoogleClientSecret, "EXPENSO_GOOGLE_CLIENT_SECRET")
	setString(&cfg.OAuth.GoogleRedirectURL, "EXPENSO_GOOGLE_REDIRECT_URL")
	setString(&cfg.LLM.APIKey, "EXPENSO_LLM_API_KEY")
	setString(&cfg.LLM.Model, "EXPENSO_LLM_MODEL")
	setString(&cfg.LLM.BaseURL, "EXPENSO_LLM_BASE_URL")
	setString(&cfg.Storage.Dir, "EXPENSO_STORAGE_DIR")
	setString(&cfg.SMTP.Host, "EXPENSO_SMTP_HOST")
	setInt(&cfg.SMTP.Port, "EXPENSO_SMTP_PORT")
	setString(&cfg.SMTP.Username, "EXPENSO_SMTP_USERNAME")
	setString(&cfg.SMTP.Password, "EXPENSO_SMTP_PASSWORD")
	setString(&cfg.SMTP.From, "EXPENSO_SMTP_FROM")
	setString(&cfg.Redis.Addr, "EXPENSO_REDIS_ADDR")
	setString(&cfg.Redis.Password, "EXPENSO_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "EXPENSO_REDIS_DB")
	setString(&cfg.Log.Level, "EXPENSO_LOG_LEVEL")
	setString(&cfg.Log.File, "EXPENSO_LOG_FILE")
}

// applyDefaults fills unset fields with workable defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.WebBaseURL == "" {
		cfg.Server.WebBaseURL = "http://localhost:3000"
	}
	if cfg.Server.APIBaseURL == "" {
		cfg.Server.APIBaseURL = "http://localhost:8080"
	}
	if cfg.JWT.AccessExpiry <= 0 {
		cfg.JWT.AccessExpiry = 15 * time.Minute
	}
	if cfg.JWT.RefreshExpiry <= 0 {
		cfg.JWT.RefreshExpiry = 7 * 24 * time.Hour
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = "uploads"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 50
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
}

func setString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func setInt(target *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, errParse := strconv.Atoi(value); errParse == nil {
			*target = parsed
		}
	}
}
