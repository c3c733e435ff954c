package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ServerAddr string

	PGHost   string
	PGPort   int
	PGUser   string
	PGPass   string
	PGDBName string

	EmbeddingURL   string
	EmbeddingModel string
	EmbeddingDim   int

	LLMURL   string
	LLMModel string

	ChunkSize    int
	ChunkOverlap int
	RetrievalK   int

	ProviderTimeout  time.Duration
	MaxContextTokens int
}

// Load reads configuration from the environment. Defaults follow the
// deployment this service replaced: 1000/200 chunking, k=4, 768-dim vectors.
func Load() (Config, error) {
	cfg := Config{
		ServerAddr:       getEnv("SERVER_ADDR", ":8000"),
		PGHost:           getEnv("PG_HOST", "localhost"),
		PGPort:           getEnvInt("PG_PORT", 5432),
		PGUser:           os.Getenv("PG_USER"),
		PGPass:           os.Getenv("PG_PASS"),
		PGDBName:         os.Getenv("PG_DB_NAME"),
		EmbeddingURL:     os.Getenv("EMBEDDING_URL"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		EmbeddingDim:     getEnvInt("EMBEDDING_DIM", 768),
		LLMURL:           os.Getenv("LLM_URL"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		ChunkSize:        getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:     getEnvInt("CHUNK_OVERLAP", 200),
		RetrievalK:       getEnvInt("RETRIEVAL_K", 4),
		ProviderTimeout:  time.Duration(getEnvInt("PROVIDER_TIMEOUT", 30)) * time.Second,
		MaxContextTokens: getEnvInt("MAX_CONTEXT_TOKENS", 3000),
	}

	if cfg.ChunkSize <= 0 {
		return cfg, fmt.Errorf("CHUNK_SIZE must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return cfg, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", cfg.ChunkOverlap)
	}
	if cfg.RetrievalK <= 0 {
		return cfg, fmt.Errorf("RETRIEVAL_K must be positive, got %d", cfg.RetrievalK)
	}
	if cfg.EmbeddingDim <= 0 {
		return cfg, fmt.Errorf("EMBEDDING_DIM must be positive, got %d", cfg.EmbeddingDim)
	}
	return cfg, nil
}

func (c Config) PostgresConnStr() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.PGHost, c.PGPort, c.PGUser, c.PGPass, c.PGDBName)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
