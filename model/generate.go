package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Generator produces text for a prompt via an external provider.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// OllamaGenerator calls an Ollama-compatible generate endpoint. Both plain
// and streamed JSON responses are handled.
type OllamaGenerator struct {
	apiURL  string
	model   string
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
}

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func NewOllamaGenerator(apiURL, model string, timeout time.Duration) *OllamaGenerator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaGenerator{
		apiURL:  apiURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		logger:  slog.Default(),
	}
}

func (g *OllamaGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		g.logger.Info("generation finished", "took", time.Since(start))
	}()

	reqBody, err := json.Marshal(generateRequest{
		Model:  g.model,
		System: system,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generation API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response, nil
	}

	// streamed response: concatenate the chunks
	var output string
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk generateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		output += chunk.Response
	}
	if output == "" {
		return "", fmt.Errorf("empty generation response")
	}
	return output, nil
}
