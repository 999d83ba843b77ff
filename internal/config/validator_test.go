package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeoutSeconds: 15, WriteTimeoutSeconds: 15},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{Host: "localhost", Port: 5432},
			Redis:    RedisConfig{Host: "localhost", Port: 6379},
		},
		Automation: AutomationConfig{
			RulesSettingKey: "automation_rules",
			Reload:          ReloadConfig{IntervalSeconds: 30},
		},
	}
}

func TestValidateStaticAcceptsValidConfig(t *testing.T) {
	assert.NoError(t, ValidateStatic(validConfig()))
}

func TestValidateStaticRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "zero server port",
			mutate: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name:   "server port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
		},
		{
			name:   "missing postgres host",
			mutate: func(c *Config) { c.Database.Postgres.Host = "" },
		},
		{
			name:   "missing redis host",
			mutate: func(c *Config) { c.Database.Redis.Host = "" },
		},
		{
			name:   "zero reload interval",
			mutate: func(c *Config) { c.Automation.Reload.IntervalSeconds = 0 },
		},
		{
			name:   "negative jitter",
			mutate: func(c *Config) { c.Automation.Reload.JitterMaxMilliseconds = -1 },
		},
		{
			name: "rate limit enabled without rps",
			mutate: func(c *Config) {
				c.Broadcast.RateLimit.Enabled = true
				c.Broadcast.RateLimit.RPS = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, ValidateStatic(cfg))
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "automation_rules", cfg.Automation.RulesSettingKey)
	assert.Equal(t, 30, cfg.Automation.Reload.IntervalSeconds)
	assert.Equal(t, 10, cfg.Telegram.TimeoutSeconds)
	assert.Equal(t, 8, cfg.Broadcast.MaxConcurrency)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, 8080, cfg.Server.Port)
}
