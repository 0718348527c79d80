// Package config handles application configuration and environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/roach88/chartquery/internal/store"
)

// Environment keys.
const (
	KeyFabricServer       = "FABRIC_SQL_SERVER"
	KeyFabricDatabase     = "FABRIC_SQL_DATABASE"
	KeyClientID           = "AZURE_CLIENT_ID"
	KeyClientSecret       = "AZURE_CLIENT_SECRET"
	KeyTenantID           = "AZURE_TENANT_ID"
	KeyBackend            = "DB_BACKEND"
	KeySQLitePath         = "SQLITE_PATH"
	KeyPostgresDSN        = "POSTGRES_DSN"
	KeyListenAddr         = "LISTEN_ADDR"
	KeyLogLevel           = "LOG_LEVEL"
	KeyReadTimeout        = "READ_TIMEOUT"
	KeyWriteTimeout       = "WRITE_TIMEOUT"
	KeyRateLimitRPS       = "RATE_LIMIT_RPS"
	KeyRateLimitBurst     = "RATE_LIMIT_BURST"
	KeyCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"
	KeyOpenAIEndpoint     = "AZURE_OPENAI_ENDPOINT"
	KeyOpenAIAPIKey       = "AZURE_OPENAI_API_KEY"
	KeyOpenAIAPIVersion   = "AZURE_OPENAI_API_VERSION"
	KeyOpenAIDeployment   = "AZURE_OPENAI_DEPLOYMENT"
	KeyTestTable          = "TEST_TABLE"
)

// DefaultEnvFile is read when present; its absence is not an error.
const DefaultEnvFile = ".env"

var defaults = map[string]any{
	KeyBackend:            store.BackendSQLServer,
	KeyListenAddr:         ":8080",
	KeyLogLevel:           "info",
	KeyReadTimeout:        "15s",
	KeyWriteTimeout:       "60s",
	KeyRateLimitRPS:       10.0,
	KeyRateLimitBurst:     20,
	KeyCORSAllowedOrigins: "*",
	KeyOpenAIAPIVersion:   "2024-06-01",
	KeyOpenAIDeployment:   "gpt-5.2-chat",
	KeyTestTable:          "Patient",
}

// OpenAIConfig locates the Azure OpenAI deployment behind /chat.
type OpenAIConfig struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Deployment string
}

// Configured reports whether enough is set to build a chat model.
func (o OpenAIConfig) Configured() bool {
	return o.Endpoint != "" && o.APIKey != ""
}

// Config holds the configuration for the query service.
type Config struct {
	Database store.Settings

	ListenAddr   string        // HTTP listen address (default ":8080")
	LogLevel     string        // debug, info, warn, error (default "info")
	ReadTimeout  time.Duration // HTTP server read timeout
	WriteTimeout time.Duration // HTTP server write timeout; bounds query time

	RateLimitRPS       float64  // sustained requests per second per client
	RateLimitBurst     int      // burst capacity per client
	CORSAllowedOrigins []string // allowed origins (default ["*"])

	OpenAI OpenAIConfig

	// TestTable is the table the connectivity probe reads by default.
	TestTable string

	// Warnings collects non-fatal problems found while loading.
	// They are logged by the caller once the logger exists.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads envFile into the process environment (existing variables win)
// and then resolves every key from the environment with defaults.
//
// A missing envFile is ignored when it is DefaultEnvFile or empty, and an
// error otherwise.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || envFile != DefaultEnvFile {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Database: store.Settings{
			Backend:      strings.ToLower(strings.TrimSpace(v.GetString(KeyBackend))),
			Server:       v.GetString(KeyFabricServer),
			Database:     v.GetString(KeyFabricDatabase),
			ClientID:     v.GetString(KeyClientID),
			ClientSecret: v.GetString(KeyClientSecret),
			TenantID:     v.GetString(KeyTenantID),
			PostgresDSN:  v.GetString(KeyPostgresDSN),
			SQLitePath:   v.GetString(KeySQLitePath),
		},
		ListenAddr:         v.GetString(KeyListenAddr),
		LogLevel:           v.GetString(KeyLogLevel),
		ReadTimeout:        v.GetDuration(KeyReadTimeout),
		WriteTimeout:       v.GetDuration(KeyWriteTimeout),
		RateLimitRPS:       v.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst:     v.GetInt(KeyRateLimitBurst),
		CORSAllowedOrigins: splitList(v.GetString(KeyCORSAllowedOrigins)),
		OpenAI: OpenAIConfig{
			Endpoint:   v.GetString(KeyOpenAIEndpoint),
			APIKey:     v.GetString(KeyOpenAIAPIKey),
			APIVersion: v.GetString(KeyOpenAIAPIVersion),
			Deployment: v.GetString(KeyOpenAIDeployment),
		},
		TestTable: v.GetString(KeyTestTable),
	}

	switch cfg.Database.Backend {
	case store.BackendSQLServer, store.BackendPostgres, store.BackendSQLite:
	default:
		return nil, fmt.Errorf("%s must be one of sqlserver, postgres, sqlite (got %q)", KeyBackend, cfg.Database.Backend)
	}

	if cfg.ReadTimeout <= 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s is not a positive duration, using 15s", KeyReadTimeout))
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s is not a positive duration, using 60s", KeyWriteTimeout))
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		return nil, fmt.Errorf("%s and %s must be positive", KeyRateLimitRPS, KeyRateLimitBurst)
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.OpenAI.Endpoint != "" && cfg.OpenAI.APIKey == "" {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("%s is set without %s, chat is disabled", KeyOpenAIEndpoint, KeyOpenAIAPIKey))
	}

	return cfg, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
