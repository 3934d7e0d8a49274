package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "secret")
	for _, key := range []string{"ENV", "HTTP_ADDR", "JWT_TTL", "NOTIFY_INTERVAL", "NOTIFY_BATCH_SIZE", "NOTIFY_MAX_ATTEMPTS", "MIDTRANS_PRODUCTION"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30*time.Second, cfg.NotifyInterval)
	assert.Equal(t, 50, cfg.NotifyBatchSize)
	assert.Equal(t, 5, cfg.NotifyMaxAttempts)
	assert.False(t, cfg.MidtransProduction)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "postgres without dsn", env: map[string]string{"STORAGE_DRIVER": "postgres", "JWT_SECRET": "s", "DB_DSN": ""}, want: "DB_DSN"},
		{name: "unknown driver", env: map[string]string{"STORAGE_DRIVER": "sqlite", "JWT_SECRET": "s"}, want: "STORAGE_DRIVER"},
		{name: "no secret", env: map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": ""}, want: "JWT_SECRET"},
		{name: "bad duration", env: map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": "s", "JWT_TTL": "tomorrow"}, want: "JWT_TTL"},
		{name: "bad int", env: map[string]string{"STORAGE_DRIVER": "memory", "JWT_SECRET": "s", "NOTIFY_BATCH_SIZE": "many"}, want: "NOTIFY_BATCH_SIZE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("ADMIN_API_URL", "https://admin.example.com")
	t.Setenv("ADMIN_TOKEN_FILE", "/tmp/token.json")
	t.Setenv("ADMIN_HTTP_TIMEOUT", "5s")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://admin.example.com", cfg.APIURL)
	assert.Equal(t, "/tmp/token.json", cfg.TokenFile)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
}
