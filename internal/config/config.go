// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Auth Provider (Firebase) Configuration
	FirebaseServiceAccountKeyPath string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_KEY_PATH"`
	FirebaseProjectID             string `mapstructure:"FIREBASE_PROJECT_ID"`
	FirebaseWebAPIKey             string `mapstructure:"FIREBASE_WEB_API_KEY"`
	// Endpoint overrides are used with the local auth emulator in tests.
	IdentityToolkitEndpoint string `mapstructure:"IDENTITY_TOOLKIT_ENDPOINT"`
	SecureTokenEndpoint     string `mapstructure:"SECURE_TOKEN_ENDPOINT"`
	EmailConfirmationNeeded bool   `mapstructure:"AUTH_EMAIL_CONFIRMATION_REQUIRED"`

	// Session Configuration
	SessionCookieName   string        `mapstructure:"SESSION_COOKIE_NAME"`
	SessionCookieSecret string        `mapstructure:"SESSION_COOKIE_SECRET"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL_MINUTES"`
	SessionCookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`

	// Listings
	ListingLapseDays      int    `mapstructure:"LISTING_LAPSE_DAYS"`
	ListingLapseSchedule  string `mapstructure:"LISTING_LAPSE_JOB_SCHEDULE"`
	ElasticsearchURL      string `mapstructure:"ELASTICSEARCH_URL"`
	FileStoragePath       string `mapstructure:"FILE_STORAGE_PATH"`
	PublicBaseURL         string `mapstructure:"PUBLIC_BASE_URL"`
}

// placeholder values that count as "not configured". Scaffolding tools seed
// .env files with these.
var placeholderValues = []string{
	"", "your-api-key", "your_api_key", "changeme", "placeholder",
}

func isPlaceholder(v string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(v))
	for _, p := range placeholderValues {
		if trimmed == p {
			return true
		}
	}
	return strings.HasPrefix(trimmed, "your-") || strings.HasPrefix(trimmed, "your_")
}

// AuthProviderConfigured reports whether the external auth provider can be
// reached at all: both the project id and the public web API key must be
// present and not placeholder values. A misconfigured provider is surfaced by
// the session manager as CONFIG_MISSING rather than a startup failure, so the
// rest of the application (public listing search, health checks) stays up.
func (c *Config) AuthProviderConfigured() bool {
	return !isPlaceholder(c.FirebaseProjectID) && !isPlaceholder(c.FirebaseWebAPIKey)
}

// DSN returns the GORM Postgres DSN assembled from the individual DB_* values.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// Load attempts to load configuration from a .env file (if present) and
// environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "service4me_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("FIREBASE_SERVICE_ACCOUNT_KEY_PATH", "")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("FIREBASE_WEB_API_KEY", "")
	v.SetDefault("IDENTITY_TOOLKIT_ENDPOINT", "https://identitytoolkit.googleapis.com/v1")
	v.SetDefault("SECURE_TOKEN_ENDPOINT", "https://securetoken.googleapis.com/v1")
	v.SetDefault("AUTH_EMAIL_CONFIRMATION_REQUIRED", true)

	v.SetDefault("SESSION_COOKIE_NAME", "s4m_session")
	v.SetDefault("SESSION_COOKIE_SECRET", "")
	v.SetDefault("SESSION_TTL_MINUTES", 720)
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("LISTING_LAPSE_DAYS", 90)
	v.SetDefault("LISTING_LAPSE_JOB_SCHEDULE", "@daily")
	v.SetDefault("ELASTICSEARCH_URL", "")
	v.SetDefault("FILE_STORAGE_PATH", "./uploads")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.SessionTTL = time.Duration(v.GetInt("SESSION_TTL_MINUTES")) * time.Minute

	if strings.TrimSpace(cfg.SessionCookieSecret) == "" {
		return nil, fmt.Errorf("FATAL: SESSION_COOKIE_SECRET is not set. It is required to sign session cookies")
	}
	if cfg.FirebaseServiceAccountKeyPath != "" {
		if _, err := os.Stat(cfg.FirebaseServiceAccountKeyPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("FATAL: Firebase service account key file specified in FIREBASE_SERVICE_ACCOUNT_KEY_PATH (%s) not found", cfg.FirebaseServiceAccountKeyPath)
		}
	}

	return &cfg, nil
}
