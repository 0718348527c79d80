package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/chartquery/internal/store"
)

// clearEnv blanks every key so the developer's shell cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		KeyFabricServer, KeyFabricDatabase, KeyClientID, KeyClientSecret, KeyTenantID,
		KeyBackend, KeySQLitePath, KeyPostgresDSN, KeyListenAddr, KeyLogLevel,
		KeyReadTimeout, KeyWriteTimeout, KeyRateLimitRPS, KeyRateLimitBurst,
		KeyCORSAllowedOrigins, KeyOpenAIEndpoint, KeyOpenAIAPIKey,
		KeyOpenAIAPIVersion, KeyOpenAIDeployment, KeyTestTable,
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, store.BackendSQLServer, cfg.Database.Backend)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 10.0, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "2024-06-01", cfg.OpenAI.APIVersion)
	assert.Equal(t, "gpt-5.2-chat", cfg.OpenAI.Deployment)
	assert.False(t, cfg.OpenAI.Configured())
	assert.Equal(t, "Patient", cfg.TestTable)
	assert.Empty(t, cfg.Warnings)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyFabricServer, "abc.fabric.microsoft.com")
	t.Setenv(KeyFabricDatabase, "clinical")
	t.Setenv(KeyClientID, "client")
	t.Setenv(KeyClientSecret, "secret")
	t.Setenv(KeyTenantID, "tenant")
	t.Setenv(KeyBackend, "SQLite")
	t.Setenv(KeySQLitePath, "/tmp/c.db")
	t.Setenv(KeyWriteTimeout, "2m")
	t.Setenv(KeyRateLimitBurst, "5")
	t.Setenv(KeyCORSAllowedOrigins, "https://a.example, https://b.example,")
	t.Setenv(KeyOpenAIEndpoint, "https://oai.example")
	t.Setenv(KeyOpenAIAPIKey, "k")
	t.Setenv(KeyTestTable, "Vitals")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, store.Settings{
		Backend:      store.BackendSQLite,
		Server:       "abc.fabric.microsoft.com",
		Database:     "clinical",
		ClientID:     "client",
		ClientSecret: "secret",
		TenantID:     "tenant",
		SQLitePath:   "/tmp/c.db",
	}, cfg.Database)
	assert.Equal(t, 2*time.Minute, cfg.WriteTimeout)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.OpenAI.Configured())
	assert.Equal(t, "Vitals", cfg.TestTable)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(KeyListenAddr, ":9000")

	path := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("LISTEN_ADDR=:7000\nTEST_TABLE=LabResult\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(KeyTestTable) })

	cfg, err := Load(path)
	require.NoError(t, err)

	// Variables already in the environment win over the file
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "LabResult", cfg.TestTable)
}

func TestLoad_ExplicitEnvFileMissing(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("backend", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(KeyBackend, "oracle")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), KeyBackend)
	})

	t.Run("rate limit", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(KeyRateLimitRPS, "0")
		_, err := Load("")
		require.Error(t, err)
	})

	t.Run("timeout falls back with warning", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(KeyReadTimeout, "soon")
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
		require.Len(t, cfg.Warnings, 1)
		assert.Contains(t, cfg.Warnings[0], KeyReadTimeout)
	})
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.in}
		assert.Equal(t, tt.want, cfg.SlogLevel(), tt.in)
	}
}
