package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_MOCK", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, int64(1500), cfg.ServiceFeeBps)
	assert.Equal(t, 48*time.Hour, cfg.DepositReleaseDelay)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("PAYMENT_GATEWAY_MOCK", "yes")
	t.Setenv("SERVICE_FEE_BPS", "1000")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("DEPOSIT_RELEASE_DELAY", "2h")
	t.Setenv("CURRENCY", "eur")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cfg.ServiceFeeBps)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.DepositReleaseDelay)
	assert.Equal(t, "EUR", cfg.Currency)
}

func TestLoadRejectsInvalidCombinations(t *testing.T) {
	cases := map[string]map[string]string{
		"stripe key missing": {},
		"mongo uri missing":  {"PAYMENT_GATEWAY_MOCK": "true", "STORAGE_BACKEND": "mongo"},
		"smtp host missing":  {"PAYMENT_GATEWAY_MOCK": "true", "EMAIL_PROVIDER": "smtp"},
		"bad duration":       {"PAYMENT_GATEWAY_MOCK": "true", "JOB_SWEEP_INTERVAL": "soon"},
		"bad bool":           {"PAYMENT_GATEWAY_MOCK": "maybe"},
		"unknown auth":       {"PAYMENT_GATEWAY_MOCK": "true", "AUTH_MODE": "basic"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STRIPE_SECRET_KEY", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
