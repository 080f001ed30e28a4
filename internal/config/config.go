// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the storefront
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Identity IdentityConfig
	Commerce CommerceConfig
	Razorpay RazorpayConfig
	Session  SessionConfig
	Security SecurityConfig
	Cache    CacheConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// DatabaseConfig contains the checkout ledger database configuration
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// IdentityConfig describes the external identity provider's tokens
type IdentityConfig struct {
	// JWTSecret verifies provider tokens when set. Empty means claims are read unverified.
	JWTSecret string
	Issuer    string
	SignInURL string
}

// CommerceConfig points at the commerce REST API
type CommerceConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RazorpayConfig contains the client-side checkout widget settings
type RazorpayConfig struct {
	KeyID             string
	Currency          string
	BusinessName      string
	Description       string
	ThemeColor        string
	CheckoutScriptURL string
	ProbeInterval     time.Duration
}

// SessionConfig controls shopper sessions
type SessionConfig struct {
	CookieName   string
	CookieSecure bool
	IdleTTL      time.Duration
	TokenTTL     time.Duration
	SweepEvery   time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
}

// CacheConfig controls caching of public catalog and content reads
type CacheConfig struct {
	CatalogTTL time.Duration
	ContentTTL time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Sweets Storefront"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			MaxBodyBytes:   getEnvAsInt64("SERVER_MAX_BODY_BYTES", 1<<20),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", true),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront_db"),
			User:         getEnv("DB_USER", "storefront_user"),
			Password:     getEnv("DB_PASSWORD", "storefront_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
		},
		Identity: IdentityConfig{
			JWTSecret: getEnv("IDENTITY_JWT_SECRET", ""),
			Issuer:    getEnv("IDENTITY_ISSUER", ""),
			SignInURL: getEnv("IDENTITY_SIGNIN_URL", "/signin"),
		},
		Commerce: CommerceConfig{
			BaseURL: getEnv("COMMERCE_API_URL", "http://localhost:8000/api"),
			Timeout: getEnvAsDuration("COMMERCE_TIMEOUT", 15*time.Second),
		},
		Razorpay: RazorpayConfig{
			KeyID:             getEnv("RAZORPAY_KEY_ID", ""),
			Currency:          getEnv("RAZORPAY_CURRENCY", "INR"),
			BusinessName:      getEnv("RAZORPAY_BUSINESS_NAME", "Sweets Storefront"),
			Description:       getEnv("RAZORPAY_DESCRIPTION", "Order payment"),
			ThemeColor:        getEnv("RAZORPAY_THEME_COLOR", "#c2410c"),
			CheckoutScriptURL: getEnv("RAZORPAY_CHECKOUT_SCRIPT", "https://checkout.razorpay.com/v1/checkout.js"),
			ProbeInterval:     getEnvAsDuration("RAZORPAY_PROBE_INTERVAL", 5*time.Minute),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE", "sf_session"),
			CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
			IdleTTL:      getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
			TokenTTL:     getEnvAsDuration("SESSION_TOKEN_TTL", 7*24*time.Hour),
			SweepEvery:   getEnvAsDuration("SESSION_SWEEP_EVERY", time.Minute),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 120),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
		},
		Cache: CacheConfig{
			CatalogTTL: getEnvAsDuration("CACHE_CATALOG_TTL", time.Minute),
			ContentTTL: getEnvAsDuration("CACHE_CONTENT_TTL", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Commerce.BaseURL == "" {
		return fmt.Errorf("COMMERCE_API_URL is required")
	}
	if _, err := url.ParseRequestURI(c.Commerce.BaseURL); err != nil {
		return fmt.Errorf("COMMERCE_API_URL is not a valid URL: %w", err)
	}

	if c.Identity.JWTSecret != "" && len(c.Identity.JWTSecret) < 32 {
		return fmt.Errorf("IDENTITY_JWT_SECRET must be at least 32 characters long")
	}

	if c.Database.Enabled {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
	}

	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE is required")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
