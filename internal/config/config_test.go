package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYMONGO_SECRET_KEY", "")
	t.Setenv("PAYMONGO_TEST_SECRET_KEY", "sk_test_legacy")
	t.Setenv("ELASTICSEARCH_URL", "")

	cfg := Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "https://api.paymongo.com/v1", cfg.PayMongo.BaseURL)
	assert.Equal(t, "sk_test_legacy", cfg.PayMongo.SecretKey)
	assert.Equal(t, 10*time.Second, cfg.PayMongo.Timeout)
	assert.Equal(t, "PHP", cfg.PayMongo.Currency)
	assert.True(t, cfg.Notifications.SuppressPending)
	assert.False(t, cfg.Elasticsearch.Enabled())
	assert.False(t, cfg.Pusher.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("NOTIFY_SUPPRESS_PENDING", "false")
	t.Setenv("PAYMONGO_TIMEOUT", "3s")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("PUSHER_APP_ID", "1")
	t.Setenv("PUSHER_KEY", "k")
	t.Setenv("PUSHER_SECRET", "s")

	cfg := Load()

	assert.False(t, cfg.Notifications.SuppressPending)
	assert.Equal(t, 3*time.Second, cfg.PayMongo.Timeout)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 50, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.Pusher.Enabled())
}
