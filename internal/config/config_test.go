package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("COMMERCE_API_URL", "https://shop.example.in/api/")
	t.Setenv("SESSION_IDLE_TTL", "45m")
	t.Setenv("SERVER_MAX_BODY_BYTES", "2048")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://sweets.example.in, *.preview.example.in")
	t.Setenv("IDENTITY_JWT_SECRET", strings.Repeat("s", 32))

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "https://shop.example.in/api/", cfg.Commerce.BaseURL)
	assert.Equal(t, 45*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, int64(2048), cfg.Server.MaxBodyBytes)
	assert.Equal(t, 30, cfg.Security.RateLimitPerMinute)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, []string{"https://sweets.example.in", "*.preview.example.in"}, cfg.Security.CORSAllowedOrigins)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("SESSION_IDLE_TTL", "half an hour")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "many")
	t.Setenv("COMMERCE_API_URL", "http://localhost:8000/api")
	t.Setenv("IDENTITY_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 120, cfg.Security.RateLimitPerMinute)
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Database: DatabaseConfig{Enabled: true, Host: "localhost", Name: "storefront_db", User: "storefront_user"},
		Redis:    RedisConfig{Host: "localhost", Port: "6379"},
		Commerce: CommerceConfig{BaseURL: "http://localhost:8000/api"},
		Session:  SessionConfig{CookieName: "sf_session"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing commerce url", func(c *Config) { c.Commerce.BaseURL = "" }, "COMMERCE_API_URL is required"},
		{"relative commerce url", func(c *Config) { c.Commerce.BaseURL = "shop/api" }, "COMMERCE_API_URL is not a valid URL"},
		{"short secret", func(c *Config) { c.Identity.JWTSecret = "short" }, "IDENTITY_JWT_SECRET"},
		{"ledger without host", func(c *Config) { c.Database.Host = "" }, "DB_HOST is required"},
		{"ledger disabled", func(c *Config) { c.Database = DatabaseConfig{} }, ""},
		{"missing redis", func(c *Config) { c.Redis.Host = "" }, "REDIS_HOST is required"},
		{"missing cookie name", func(c *Config) { c.Session.CookieName = "" }, "SESSION_COOKIE is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddresses(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Port = "5432"
	cfg.Database.Password = "secret"
	cfg.Database.SSLMode = "disable"

	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
	assert.Equal(t, "host=localhost port=5432 user=storefront_user password=secret dbname=storefront_db sslmode=disable", cfg.GetDatabaseDSN())
}
