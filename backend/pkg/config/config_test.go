package config

import (
	"testing"
	"time"

	apperrors "cogex/backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NEO4J_URI", "")
	t.Setenv("CURATION_LIMIT", "")
	t.Setenv("CACHE_DIR", "/tmp/cogex-cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4jURI)
	assert.Equal(t, 50, cfg.CurationLimit)
	assert.Equal(t, "/tmp/cogex-cache", cfg.CacheDir)
	assert.Equal(t, 10*time.Second, cfg.Neo4jTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CURATION_LIMIT", "25")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("CURATION_DSN", "postgres://user:pw@localhost:5432/cogex")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.CurationLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.UsesPostgres())
}

func TestValidate_RejectsNonPositiveLimit(t *testing.T) {
	cfg := &Config{
		Neo4jURI:         "bolt://localhost:7687",
		Neo4jUser:        "neo4j",
		Neo4jPassword:    "pw",
		CacheDir:         "/tmp",
		CurationDSN:      "curation.db",
		CurationLimit:    0,
		Neo4jMaxPoolSize: 10,
	}
	assert.Error(t, cfg.Validate())

	cfg.CurationLimit = 10
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TypedErrors(t *testing.T) {
	cfg := &Config{
		Neo4jURI:         "bolt://localhost:7687",
		Neo4jUser:        "neo4j",
		CacheDir:         "/tmp",
		CurationDSN:      "curation.db",
		CurationLimit:    10,
		Neo4jMaxPoolSize: 10,
	}
	err := cfg.Validate()
	var missing *apperrors.ErrConfigMissingRequired
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "NEO4J_PASSWORD", missing.Field)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeConfig))

	cfg.Neo4jPassword = "pw"
	cfg.Neo4jMaxPoolSize = -1
	err = cfg.Validate()
	var invalid *apperrors.ErrConfigInvalid
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "NEO4J_MAX_POOL_SIZE", invalid.Field)
}
