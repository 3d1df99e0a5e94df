// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultAdminTokenSecret = "your-secret-key-change-in-production"

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags   string `mapstructure:"FEATURE_FLAGS"`

	// DBDriver selects the document store backend: "postgres" or "sqlite".
	DBDriver                 string `mapstructure:"DB_DRIVER"`
	DBHost                   string `mapstructure:"DB_HOST"`
	DBPort                   string `mapstructure:"DB_PORT"`
	DBUser                   string `mapstructure:"DB_USER"`
	DBPassword               string `mapstructure:"DB_PASSWORD"`
	DBName                   string `mapstructure:"DB_NAME"`
	DBSSLMode                string `mapstructure:"DB_SSLMODE"`
	DBPath                   string `mapstructure:"DB_PATH"`
	DBMaxOpenConns           int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeMinutes int    `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	RedisURL string `mapstructure:"REDIS_URL"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Admin API trust domain.
	AdminPassword      string `mapstructure:"ADMIN_PASSWORD"`
	AdminPasswordHash  string `mapstructure:"ADMIN_PASSWORD_HASH"`
	AdminTokenSecret   string `mapstructure:"ADMIN_TOKEN_SECRET"`
	AdminTokenTTLHours int    `mapstructure:"ADMIN_TOKEN_TTL_HOURS"`

	// Editor session trust domain (federated identity provider).
	IdentityJWKSURL  string `mapstructure:"IDENTITY_JWKS_URL"`
	IdentityIssuer   string `mapstructure:"IDENTITY_ISSUER"`
	IdentityAudience string `mapstructure:"IDENTITY_AUDIENCE"`
	EditorUserIDs    string `mapstructure:"EDITOR_USER_IDS"`

	// Object storage for editor uploads.
	MediaDir             string `mapstructure:"MEDIA_DIR"`
	MediaBaseURL         string `mapstructure:"MEDIA_BASE_URL"`
	MediaMaxUploadSizeMB int    `mapstructure:"MEDIA_MAX_UPLOAD_SIZE_MB"`

	// Source-control-backed content store used by the admin API.
	GitHubToken    string `mapstructure:"GITHUB_TOKEN"`
	GitHubOwner    string `mapstructure:"GITHUB_OWNER"`
	GitHubRepo     string `mapstructure:"GITHUB_REPO"`
	GitHubBranch   string `mapstructure:"GITHUB_BRANCH"`
	PublishDir     string `mapstructure:"PUBLISH_DIR"`
	PostsDir       string `mapstructure:"POSTS_DIR"`
	UploadsDir     string `mapstructure:"UPLOADS_DIR"`
	UploadsBaseURL string `mapstructure:"UPLOADS_BASE_URL"`
	RebuildHookURL string `mapstructure:"REBUILD_HOOK_URL"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// LoadConfig loads application configuration from .env, config files and environment variables.
func LoadConfig() (*Config, error) {
	// Missing .env is normal outside local development.
	_ = godotenv.Load()

	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "rebuild_hook=on,public_cache=on")

	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "folio")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_PATH", "folio.db")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 5)

	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("ADMIN_PASSWORD", "")
	viper.SetDefault("ADMIN_PASSWORD_HASH", "")
	viper.SetDefault("ADMIN_TOKEN_SECRET", defaultAdminTokenSecret)
	viper.SetDefault("ADMIN_TOKEN_TTL_HOURS", 8)

	viper.SetDefault("IDENTITY_JWKS_URL", "")
	viper.SetDefault("IDENTITY_ISSUER", "")
	viper.SetDefault("IDENTITY_AUDIENCE", "")
	viper.SetDefault("EDITOR_USER_IDS", "")

	viper.SetDefault("MEDIA_DIR", "/tmp/folio/media")
	viper.SetDefault("MEDIA_BASE_URL", "/media")
	viper.SetDefault("MEDIA_MAX_UPLOAD_SIZE_MB", 10)

	viper.SetDefault("GITHUB_TOKEN", "")
	viper.SetDefault("GITHUB_OWNER", "")
	viper.SetDefault("GITHUB_REPO", "")
	viper.SetDefault("GITHUB_BRANCH", "main")
	viper.SetDefault("PUBLISH_DIR", "/tmp/folio/site")
	viper.SetDefault("POSTS_DIR", "content/posts")
	viper.SetDefault("UPLOADS_DIR", "public/uploads")
	viper.SetDefault("UPLOADS_BASE_URL", "/uploads")
	viper.SetDefault("REBUILD_HOOK_URL", "")

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)
}

// IsProduction reports whether the config describes a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// AdminTokenTTL returns the lifetime of admin bearer tokens.
func (c *Config) AdminTokenTTL() time.Duration {
	if c.AdminTokenTTLHours <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(c.AdminTokenTTLHours) * time.Hour
}

// AdminConfigured reports whether the admin API has both a password and a signing secret.
func (c *Config) AdminConfigured() bool {
	hasPassword := c.AdminPassword != "" || c.AdminPasswordHash != ""
	return hasPassword && c.AdminTokenSecret != ""
}

// GitHubConfigured reports whether publishing should go through the GitHub contents API.
func (c *Config) GitHubConfigured() bool {
	return c.GitHubToken != "" && c.GitHubOwner != "" && c.GitHubRepo != ""
}

// EditorAllowlist returns the configured editor subjects. An empty list admits any verified session.
func (c *Config) EditorAllowlist() []string {
	var out []string
	for _, id := range strings.Split(c.EditorUserIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	switch c.DBDriver {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.MediaMaxUploadSizeMB < 0 {
		return errors.New("MEDIA_MAX_UPLOAD_SIZE_MB must not be negative")
	}

	if c.IsProduction() {
		if c.AdminTokenSecret == defaultAdminTokenSecret {
			return errors.New("ADMIN_TOKEN_SECRET must be changed from the default value in production")
		}
		if c.AdminTokenSecret != "" && len(c.AdminTokenSecret) < 32 {
			return errors.New("ADMIN_TOKEN_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "postgres" {
			if c.DBPassword == "password" || c.DBPassword == "" {
				return errors.New("a strong DB_PASSWORD is required in production")
			}
			if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
				return errors.New("DB_SSLMODE must enable TLS in production")
			}
		}
		if c.IdentityJWKSURL == "" {
			log.Println("WARNING: IDENTITY_JWKS_URL is empty in production. The editor API will reject every session.")
		} else if c.IdentityIssuer == "" || c.IdentityAudience == "" {
			return errors.New("IDENTITY_ISSUER and IDENTITY_AUDIENCE are required in production when IDENTITY_JWKS_URL is set")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
	} else if c.AdminTokenSecret != "" && len(c.AdminTokenSecret) < 32 {
		log.Println("WARNING: ADMIN_TOKEN_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}
