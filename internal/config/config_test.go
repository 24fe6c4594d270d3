package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.HTTPPort)
	assert.Equal(t, RateLimit{Amount: 10, Interval: 30 * time.Second}, cfg.RateLimits.Commands)
	assert.Equal(t, RateLimit{Amount: 10, Interval: 30 * time.Second}, cfg.RateLimits.Triggers)
	assert.Equal(t, "json", cfg.Database.Type)
	assert.Equal(t, "./data", cfg.Database.JSONPath)
	assert.Equal(t, "guild_configs", cfg.DynamoTables.GuildConfigs)
	assert.Empty(t, cfg.S3EvidenceBucket)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("RATE_LIMIT_COMMANDS_AMOUNT", "3")
	t.Setenv("RATE_LIMIT_COMMANDS_INTERVAL", "5000")
	t.Setenv("RATE_LIMIT_TRIGGERS_INTERVAL", "1m")
	t.Setenv("DATABASE_ENABLED", "false")
	t.Setenv("DATABASE_TYPE", "dynamo")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("WELCOME_DM_ENABLED", "nope")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.1.5 ")

	cfg := Load()

	assert.Equal(t, RateLimit{Amount: 3, Interval: 5 * time.Second}, cfg.RateLimits.Commands)
	assert.Equal(t, time.Minute, cfg.RateLimits.Triggers.Interval)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "dynamo", cfg.Database.Type)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.WelcomeDMEnabled)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.5"}, cfg.TrustedProxies)
}
