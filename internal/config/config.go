package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Port          string
	GinMode       string
	UploadDir     string
	OutputDir     string
	TemplateGlob  string
	JobRetention  time.Duration
	LoggingConfig LoggingConfig
	AuthConfig    AuthConfig
	GeodesyConfig GeodesyConfig
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// AuthConfig holds the credentials of the web UI.
type AuthConfig struct {
	Username      string
	Password      string `json:"-"`
	SessionSecret string `json:"-"`
}

// Enabled reports whether the UI requires a login. An empty password
// disables authentication.
func (a AuthConfig) Enabled() bool {
	return a.Password != ""
}

// GeodesyConfig holds the default ellipsoid and the batch parallelism.
type GeodesyConfig struct {
	RMajor  float64
	RMinor  float64
	Workers int // <= 0 means runtime.NumCPU()
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	retention, err := time.ParseDuration(getEnv("JOB_RETENTION", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JOB_RETENTION: %w", err)
	}
	workers, err := strconv.Atoi(getEnv("WORKERS", "0"))
	if err != nil {
		return nil, fmt.Errorf("WORKERS: %w", err)
	}
	rmajor, err := strconv.ParseFloat(getEnv("ELLIPSOID_RMAJOR", "6378137.0"), 64)
	if err != nil {
		return nil, fmt.Errorf("ELLIPSOID_RMAJOR: %w", err)
	}
	rminor, err := strconv.ParseFloat(getEnv("ELLIPSOID_RMINOR", "6356752.3142"), 64)
	if err != nil {
		return nil, fmt.Errorf("ELLIPSOID_RMINOR: %w", err)
	}

	cfg := &Config{
		Port:         getEnv("PORT", "9595"),
		GinMode:      getEnv("GIN_MODE", "release"),
		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		OutputDir:    getEnv("OUTPUT_DIR", "output"),
		TemplateGlob: getEnv("TEMPLATE_GLOB", "templates/*"),
		JobRetention: retention,
		LoggingConfig: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		AuthConfig: AuthConfig{
			Username:      getEnv("AUTH_USERNAME", "user"),
			Password:      getEnv("AUTH_PASSWORD", ""),
			SessionSecret: getEnv("SESSION_SECRET", ""),
		},
		GeodesyConfig: GeodesyConfig{
			RMajor:  rmajor,
			RMinor:  rminor,
			Workers: workers,
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.AuthConfig.SessionSecret == "" {
		// Without auth no session is ever saved, a throwaway key is enough.
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.AuthConfig.SessionSecret = secret
	}
	return cfg, nil
}

// Validate checks the values that cannot be caught while parsing.
func (c *Config) Validate() error {
	g := c.GeodesyConfig
	if !(g.RMajor > 0 && g.RMinor > 0 && g.RMinor <= g.RMajor) {
		return fmt.Errorf("invalid ellipsoid: rmajor=%v rminor=%v", g.RMajor, g.RMinor)
	}
	if c.AuthConfig.Enabled() && len(c.AuthConfig.SessionSecret) < minSecretLen {
		return ErrWeakSessionSecret
	}
	if c.JobRetention <= 0 {
		return fmt.Errorf("JOB_RETENTION must be positive, got %s", c.JobRetention)
	}
	return nil
}

const minSecretLen = 32

// ErrWeakSessionSecret is returned when a password is configured without a
// SESSION_SECRET long enough to sign session cookies.
var ErrWeakSessionSecret = fmt.Errorf("SESSION_SECRET must be at least %d characters when AUTH_PASSWORD is set", minSecretLen)

func randomSecret() (string, error) {
	buf := make([]byte, minSecretLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}
