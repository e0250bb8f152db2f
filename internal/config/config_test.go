package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gw-transfer-service/internal/custom_err"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 120*time.Second, cfg.HTTP.IdleTimeout)
	assert.Equal(t, 10000, cfg.Pipeline.BufferSize)
	assert.Equal(t, runtime.NumCPU(), cfg.Pipeline.MaxThreads)
	assert.Equal(t, 10*time.Millisecond, cfg.Pipeline.PollInterval)
	assert.Equal(t, time.Millisecond, cfg.Pipeline.PutTimeout)
	assert.Equal(t, "transfer-outcomes", cfg.Kafka.Topic)
	assert.False(t, cfg.Kafka.Enabled)
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("BUFFER_SIZE", "600")
	t.Setenv("MAX_THREADS", "8")
	t.Setenv("EVENT_POLL_INTERVAL", "25ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://ops.example.com")
	t.Setenv("HTTP_WRITE_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 600, cfg.Pipeline.BufferSize)
	assert.Equal(t, 8, cfg.Pipeline.MaxThreads)
	assert.Equal(t, 25*time.Millisecond, cfg.Pipeline.PollInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"https://ops.example.com"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.HTTP.WriteTimeout)
}

func TestLoad_InvalidPipelineSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero buffer", "BUFFER_SIZE", "0"},
		{"negative buffer", "BUFFER_SIZE", "-10"},
		{"negative threads", "MAX_THREADS", "-1"},
		{"zero poll interval", "EVENT_POLL_INTERVAL", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.ErrorIs(t, err, custom_err.ErrInvalidConfig)
		})
	}
}

func TestLoad_MalformedValue(t *testing.T) {
	t.Setenv("BUFFER_SIZE", "lots")

	_, err := Load()
	assert.Error(t, err)
}
