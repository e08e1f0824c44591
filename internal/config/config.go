package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort   string
	DatabaseType string // sqlite, postgres, or mysql
	DatabasePath string // SQLite file path
	DatabaseURL  string // PostgreSQL/MySQL connection string

	JWTSecret       string
	SessionDuration time.Duration

	// StoreTimeout bounds every single progress store step
	StoreTimeout time.Duration
	// StudyTimezone decides where a calendar study day starts
	StudyTimezone string

	CatalogPath       string
	ReconcileInterval time.Duration
	// AudioDir caches pronunciation files; empty disables audio
	AudioDir string

	AWSRegion    string
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	GoogleClientID       string
	GoogleClientSecret   string
	OIDCIssuerURL        string
	OIDCClientID         string
	OIDCClientSecret     string
	OAuthRedirectBaseURL string

	Debug bool
}

// Load reads configuration from a .env file, an optional YAML file named by
// CONFIG_FILE, and environment variables. Environment variables win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	l := &loader{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		values, err := readFile(path)
		if err != nil {
			return nil, err
		}
		l.file = values
	}

	cfg := &Config{
		ServerPort:   l.get("PORT", "8080"),
		DatabaseType: l.get("DB_TYPE", "sqlite"),
		DatabasePath: l.get("DB_PATH", "./wordcards.db"),
		DatabaseURL:  l.get("DATABASE_URL", ""),

		JWTSecret:     l.get("JWT_SECRET", ""),
		StudyTimezone: l.get("STUDY_TIMEZONE", "UTC"),
		CatalogPath:   l.get("CATALOG_PATH", ""),
		AudioDir:      l.get("AUDIO_DIR", ""),

		AWSRegion:    l.get("AWS_REGION", "us-east-1"),
		SESFromEmail: l.get("SES_FROM_EMAIL", ""),
		SESFromName:  l.get("SES_FROM_NAME", "Word Cards"),
		AppBaseURL:   l.get("APP_BASE_URL", "http://localhost:8080"),

		GoogleClientID:       l.get("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   l.get("GOOGLE_CLIENT_SECRET", ""),
		OIDCIssuerURL:        l.get("OIDC_ISSUER_URL", ""),
		OIDCClientID:         l.get("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:     l.get("OIDC_CLIENT_SECRET", ""),
		OAuthRedirectBaseURL: l.get("OAUTH_REDIRECT_BASE_URL", ""),
	}

	var err error
	if cfg.SessionDuration, err = l.duration("SESSION_DURATION", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = l.duration("STORE_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.ReconcileInterval, err = l.duration("RECONCILE_INTERVAL", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.Debug, err = l.bool("DEBUG", false); err != nil {
		return nil, err
	}

	if _, err := time.LoadLocation(cfg.StudyTimezone); err != nil {
		return nil, fmt.Errorf("invalid STUDY_TIMEZONE %q: %w", cfg.StudyTimezone, err)
	}

	if cfg.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}

	return cfg, nil
}

// Location returns the time zone study days are counted in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StudyTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type loader struct {
	file map[string]string
}

// get reads an environment variable, then the config file, then the default
func (l *loader) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := l.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

func (l *loader) duration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := l.get(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func (l *loader) bool(key string, defaultValue bool) (bool, error) {
	raw := l.get(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}

// readFile loads a flat YAML mapping of the same keys as the environment
func readFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	if err := yaml.NewDecoder(file).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config file %s: %w", path, err)
	}
	return values, nil
}
