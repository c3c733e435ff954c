package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.RetrievalK)
	assert.Equal(t, 768, cfg.EmbeddingDim)
	assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 3000, cfg.MaxContextTokens)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("RETRIEVAL_K", "8")
	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("PG_PORT", "5433")
	t.Setenv("PROVIDER_TIMEOUT", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 8, cfg.RetrievalK)
	assert.Equal(t, "db.internal", cfg.PGHost)
	assert.Equal(t, 5433, cfg.PGPort)
	assert.Equal(t, 60*time.Second, cfg.ProviderTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero chunk size", "CHUNK_SIZE", "0"},
		{"negative overlap", "CHUNK_OVERLAP", "-1"},
		{"overlap equals size", "CHUNK_OVERLAP", "1000"},
		{"zero k", "RETRIEVAL_K", "0"},
		{"zero dimension", "EMBEDDING_DIM", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadIgnoresUnparsableInt(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.ChunkSize)
}

func TestPostgresConnStr(t *testing.T) {
	cfg := Config{
		PGHost:   "localhost",
		PGPort:   5432,
		PGUser:   "postgres",
		PGPass:   "secret",
		PGDBName: "docchat",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=docchat sslmode=disable",
		cfg.PostgresConnStr())
}
