package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docchat/model"
	"docchat/store"
	"docchat/types"

	"github.com/google/uuid"
)

const chatSystemPrompt = `You are a helpful assistant that answers questions based on the provided document context.`

const chatPromptTemplate = `CONTEXT:
%s

INSTRUCTIONS:
- Answer the question based ONLY on the provided context above.
- If the context does not contain enough information to answer the question, respond with: "%s"
- Do not make up information or use knowledge outside of the provided context.
- Be concise and direct in your answers.
- If you quote from the context, indicate that you are doing so.

QUESTION: %s

ANSWER:`

const noContextResponse = "I don't have enough information in the document to answer this question."

// Chat answers questions about a processed document, grounded in the chunks
// retrieved from its index.
type Chat struct {
	store            store.DBStorer
	embedder         model.Embedder
	generator        model.Generator
	retrievalK       int
	maxContextTokens int
	logger           *slog.Logger
}

func NewChat(s store.DBStorer, e model.Embedder, g model.Generator, retrievalK, maxContextTokens int) *Chat {
	if retrievalK <= 0 {
		retrievalK = 4
	}
	return &Chat{
		store:            s,
		embedder:         e,
		generator:        g,
		retrievalK:       retrievalK,
		maxContextTokens: maxContextTokens,
		logger:           slog.Default(),
	}
}

// Retrieve embeds the query and returns the document's top-k chunks above
// the relevance threshold, ordered by descending score.
func (c *Chat) Retrieve(ctx context.Context, docID uuid.UUID, query string, k int) ([]types.RetrievedChunk, error) {
	if k <= 0 {
		return nil, types.InvalidInputError{Detail: fmt.Sprintf("k must be positive, got %d", k)}
	}

	queryVec, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, types.NewProcessingError("failed to embed query", err)
	}

	results, err := c.store.Search(ctx, docID, queryVec, k)
	if err != nil {
		return nil, types.NewProcessingError("similarity search failed", err)
	}

	relevant := results[:0]
	for _, r := range results {
		if r.Score >= minSimilarityThreshold {
			relevant = append(relevant, r)
		}
	}
	return relevant, nil
}

func (c *Chat) Answer(ctx context.Context, userID, docID uuid.UUID, message string) (types.ChatAnswer, error) {
	if strings.TrimSpace(message) == "" {
		return types.ChatAnswer{}, types.InvalidInputError{Detail: "message must not be empty"}
	}

	doc, err := authorize(ctx, c.store, userID, docID)
	if err != nil {
		return types.ChatAnswer{}, err
	}
	if err := requireReady(doc); err != nil {
		return types.ChatAnswer{}, err
	}

	results, err := c.Retrieve(ctx, docID, message, c.retrievalK)
	if err != nil {
		return types.ChatAnswer{}, err
	}

	if len(results) == 0 {
		return types.ChatAnswer{Answer: noContextResponse, Sources: []types.Source{}}, nil
	}

	results = c.fitContextBudget(results)
	prompt := fmt.Sprintf(chatPromptTemplate, formatContext("Source", results), noContextResponse, message)

	answer, err := c.generator.Generate(ctx, chatSystemPrompt, prompt)
	if err != nil {
		return types.ChatAnswer{}, types.NewProcessingError("generation failed", err)
	}

	// sources reflect what was given to the model, in prompt order
	return types.ChatAnswer{
		Answer:  answer,
		Sources: toSources(results),
	}, nil
}

// fitContextBudget drops trailing chunks once the token budget is spent, so
// the prompt stays within the generation context window. At least one chunk
// always survives.
func (c *Chat) fitContextBudget(results []types.RetrievedChunk) []types.RetrievedChunk {
	if c.maxContextTokens <= 0 {
		return results
	}
	total := 0
	for i, r := range results {
		n, err := model.CountTokens(r.Chunk.Content)
		if err != nil {
			c.logger.Warn("token counting failed, keeping remaining chunks", "error", err)
			return results
		}
		total += n
		if total > c.maxContextTokens && i > 0 {
			return results[:i]
		}
	}
	return results
}
