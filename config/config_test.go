package config

import (
	"testing"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "FIXTURE_SOURCE", "REFRESH_INTERVAL", "SEND_DELAY", "DEFAULT_TIME_FILTER",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "S3_REGION", "AMQP_URL", "AMQP_EXCHANGE",
	"CORS_ORIGINS", "LOG_LEVEL", "LOG_PRETTY",
}

func clearEnv(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "embedded", cfg.FixtureSource)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, time.Second, cfg.SendDelay)
	assert.Equal(t, conversation.TimeFilterWeek, cfg.DefaultTimeFilter)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "chatviewer", cfg.AMQPExchange)
	assert.Empty(t, cfg.AMQPURL)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:8080"}, cfg.CORSOrigins)
	assert.False(t, cfg.LogPretty)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("FIXTURE_SOURCE", "s3://fixtures/dashboard.json")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("SEND_DELAY", "250ms")
	t.Setenv("DEFAULT_TIME_FILTER", "mes")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CORS_ORIGINS", "https://nextmind.pro, http://localhost:5173,")
	t.Setenv("LOG_PRETTY", "true")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3://fixtures/dashboard.json", cfg.FixtureSource)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, 250*time.Millisecond, cfg.SendDelay)
	assert.Equal(t, conversation.TimeFilterMonth, cfg.DefaultTimeFilter)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"https://nextmind.pro", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.True(t, cfg.LogPretty)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFRESH_INTERVAL", "soon")
	t.Setenv("REDIS_DB", "two")
	t.Setenv("LOG_PRETTY", "maybe")

	cfg := Load()
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.LogPretty)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"refresh too fast", func(c *Config) { c.RefreshInterval = 100 * time.Millisecond }, "REFRESH_INTERVAL"},
		{"negative send delay", func(c *Config) { c.SendDelay = -time.Second }, "SEND_DELAY"},
		{"unknown time filter", func(c *Config) { c.DefaultTimeFilter = "year" }, "DEFAULT_TIME_FILTER"},
		{"redis without address", func(c *Config) { c.FixtureSource = "redis"; c.RedisAddr = "" }, "REDIS_ADDR"},
		{"amqp without exchange", func(c *Config) { c.AMQPURL = "amqp://localhost"; c.AMQPExchange = "" }, "AMQP_EXCHANGE"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
