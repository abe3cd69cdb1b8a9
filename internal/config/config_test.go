package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TOKEN_KEY", "0123456789abcdef0123456789abcdef")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.TrustedOrigins)
	assert.Equal(t, "identity", cfg.Database.DBName)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_RejectsBadTokenKey(t *testing.T) {
	t.Setenv("TOKEN_KEY", "too-short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TOKEN_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TOKEN_TTL", "3600")
	t.Setenv("TRUSTED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.TrustedOrigins)
}

func TestConnectionString(t *testing.T) {
	c := DatabaseConfig{
		Host: "db", Port: "5432", User: "svc", Password: "pw",
		DBName: "identity", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=svc password=pw dbname=identity sslmode=disable",
		c.ConnectionString(),
	)

	c.ChannelBinding = "require"
	assert.Contains(t, c.ConnectionString(), "channel_binding=require")
}
