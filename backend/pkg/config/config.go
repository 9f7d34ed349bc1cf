package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "cogex/backend/pkg/errors"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port        string
	Env         string
	ServiceName string
	Version     string
	CORSOrigins []string

	// Neo4j
	Neo4jURI         string
	Neo4jUser        string
	Neo4jPassword    string
	Neo4jDatabase    string
	Neo4jMaxPoolSize int
	Neo4jTimeout     time.Duration

	// Gene set cache
	CacheDir    string
	RedisAddr   string // Optional shared cache tier
	RedisPrefix string

	// Curation
	CurationDSN      string
	CurationCacheTTL time.Duration
	CurationLimit    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		ServiceName:      getEnv("SERVICE_NAME", "cogex"),
		Version:          getEnv("SERVICE_VERSION", "dev"),
		CORSOrigins:      getEnvList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:    getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:    getEnv("NEO4J_DATABASE", ""),
		Neo4jMaxPoolSize: getEnvInt("NEO4J_MAX_POOL_SIZE", 50),
		Neo4jTimeout:     time.Duration(getEnvInt("NEO4J_TIMEOUT_SECONDS", 10)) * time.Second,
		CacheDir:         getEnv("CACHE_DIR", defaultCacheDir()),
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPrefix:      getEnv("REDIS_PREFIX", "cogex:genesets:"),
		CurationDSN:      getEnv("CURATION_DSN", "curation.db"),
		CurationCacheTTL: time.Duration(getEnvInt("CURATION_CACHE_TTL_SECONDS", 300)) * time.Second,
		CurationLimit:    getEnvInt("CURATION_LIMIT", 50),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"NEO4J_URI", c.Neo4jURI},
		{"NEO4J_USER", c.Neo4jUser},
		{"NEO4J_PASSWORD", c.Neo4jPassword},
		{"CACHE_DIR", c.CacheDir},
		{"CURATION_DSN", c.CurationDSN},
	}
	for _, r := range required {
		if r.value == "" {
			return apperrors.NewConfigMissingRequired(r.name)
		}
	}
	if c.CurationLimit <= 0 {
		return apperrors.NewConfigInvalid("CURATION_LIMIT", fmt.Sprintf("must be positive, got %d", c.CurationLimit))
	}
	if c.Neo4jMaxPoolSize <= 0 {
		return apperrors.NewConfigInvalid("NEO4J_MAX_POOL_SIZE", fmt.Sprintf("must be positive, got %d", c.Neo4jMaxPoolSize))
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesPostgres reports whether the curation DSN points at Postgres rather than SQLite.
func (c *Config) UsesPostgres() bool {
	return strings.HasPrefix(c.CurationDSN, "postgres://") || strings.HasPrefix(c.CurationDSN, "postgresql://")
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cogex", "app_cache")
	}
	return filepath.Join(home, ".data", "indra", "cogex", "app_cache")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
