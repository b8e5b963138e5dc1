package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load("config.json")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 100, cfg.CacheCap)
	assert.Equal(t, "orders", cfg.Kafka.Topic)
	assert.Equal(t, 10*time.Second, cfg.Telegram.Timeout())
}

func TestLoadDefaultsAndEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("TELEGRAM_BOT_TOKEN", "1:abc")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(writeConfig(t, `{"env": "dev"}`))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, 5, cfg.LowStockThreshold)
	assert.Equal(t, "state.db", cfg.State.Path)
	assert.Equal(t, "1:abc", cfg.Telegram.BotToken)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadPostgresNeedsCredentials(t *testing.T) {
	path := writeConfig(t, `{"env": "prod", "storage": {"driver": "postgres", "db_host": "db", "db_port": "5432"}}`)

	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_NAME", "")
	_, err := Load(path)
	assert.Error(t, err)

	t.Setenv("DB_USER", "shop")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "lattkia")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", cfg.Storage.DBUser)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: `{"env": "dev", "storage": {"driver": "mongo"}}`},
		{name: "unknown env", body: `{"env": "staging"}`},
		{name: "kafka without topic", body: `{"env": "dev", "kafka": {"enabled": true, "brokers": ["k:9092"], "group_id": "g"}}`},
		{name: "broken json", body: `{"env": `},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
