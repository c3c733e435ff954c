package model

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "hello", req.Prompt)

		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{3, 4, 0}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text", 3, 5*time.Second)
	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, vec, 3)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestOllamaEmbedderDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 2}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text", 768, 5*time.Second)
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension mismatch")
}

func TestOllamaEmbedderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text", 3, 5*time.Second)
	_, err := e.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestOllamaEmbedderBatchFailsAsAWhole(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			http.Error(w, "transient", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{1, 0, 0}})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "nomic-embed-text", 3, 5*time.Second)
	_, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed chunk 1")
}

func TestOllamaGeneratorPlainResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "system prompt", req.System)
		assert.Equal(t, "user prompt", req.Prompt)

		json.NewEncoder(w).Encode(generateResponse{Response: "generated answer"})
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "llama3", 5*time.Second)
	out, err := g.Generate(context.Background(), "system prompt", "user prompt")
	require.NoError(t, err)
	assert.Equal(t, "generated answer", out)
}

func TestOllamaGeneratorStreamedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response": "first "}` + "\n" +
			`{"response": "second "}` + "\n" +
			`{"response": "third"}` + "\n"))
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "llama3", 5*time.Second)
	out, err := g.Generate(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "first second third", out)
}

func TestOllamaGeneratorEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: ""})
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL, "llama3", 5*time.Second)
	_, err := g.Generate(context.Background(), "sys", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty generation response")
}

func TestNormalize64(t *testing.T) {
	v := normalize64([]float64{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)

	// zero vector stays untouched
	z := normalize64([]float64{0, 0, 0})
	assert.Equal(t, []float64{0, 0, 0}, z)
}
