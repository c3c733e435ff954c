// Package service holds the core pipelines: document processing
// (load, chunk, embed, index) and retrieval-augmented answering.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docchat/store"
	"docchat/types"

	"github.com/google/uuid"
)

// chunks scoring below this similarity are treated as irrelevant context
const minSimilarityThreshold = 0.3

// TextLoader fetches a stored document and returns its extracted text.
type TextLoader interface {
	Load(ctx context.Context, fileURL string) (string, error)
}

// authorize verifies the document exists and belongs to the user.
func authorize(ctx context.Context, s store.DBStorer, userID, docID uuid.UUID) (*types.Document, error) {
	doc, err := s.GetDocument(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, types.NotFoundError{Detail: fmt.Sprintf("document %s not found", docID)}
	}
	if err != nil {
		return nil, types.NewProcessingError("failed to load document record", err)
	}
	if doc.UserID != userID {
		return nil, types.AuthorizationError{
			Detail: fmt.Sprintf("user %s is not authorized to access document %s", userID, docID),
		}
	}
	return doc, nil
}

// requireReady guards chat-side operations: a document's index is queryable
// if and only if its status is ready.
func requireReady(doc *types.Document) error {
	if doc.Status != types.StatusReady {
		return types.InvalidInputError{
			Detail: fmt.Sprintf("document %s is not processed (status: %s)", doc.ID, doc.Status),
		}
	}
	return nil
}

// formatContext renders retrieved chunks as numbered blocks for the prompt.
func formatContext(label string, results []types.RetrievedChunk) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[%s %d]\n%s", label, i+1, r.Chunk.Content))
	}
	return strings.Join(parts, "\n\n")
}

func toSources(results []types.RetrievedChunk) []types.Source {
	sources := make([]types.Source, len(results))
	for i, r := range results {
		sources[i] = types.Source{
			Content: r.Chunk.Content,
			Metadata: types.SourceMetadata{
				ChunkIndex: r.Chunk.Index,
				DocumentID: r.Chunk.DocID,
			},
		}
	}
	return sources
}
