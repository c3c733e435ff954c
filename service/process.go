package service

import (
	"context"
	"log/slog"

	"docchat/chunker"
	"docchat/model"
	"docchat/store"
	"docchat/types"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Processor drives the ingestion pipeline for one document: fetch and extract
// text, chunk it, embed every chunk, and replace the document's index.
//
// Concurrent Process calls for the same document id are collapsed: a
// duplicate waits for the in-flight run and receives its result. The status
// compare-and-swap in the store backstops deployments with several replicas.
type Processor struct {
	store    store.DBStorer
	loader   TextLoader
	chunker  *chunker.Chunker
	embedder model.Embedder
	logger   *slog.Logger

	group singleflight.Group
}

func NewProcessor(s store.DBStorer, l TextLoader, c *chunker.Chunker, e model.Embedder) *Processor {
	return &Processor{
		store:    s,
		loader:   l,
		chunker:  c,
		embedder: e,
		logger:   slog.Default(),
	}
}

func (p *Processor) Process(ctx context.Context, userID, docID uuid.UUID) (types.ProcessResult, error) {
	doc, err := authorize(ctx, p.store, userID, docID)
	if err != nil {
		return types.ProcessResult{}, err
	}

	v, err, shared := p.group.Do(docID.String(), func() (any, error) {
		return p.rebuildIndex(ctx, doc)
	})
	if err != nil {
		return types.ProcessResult{}, err
	}
	if shared {
		p.logger.Info("joined in-flight processing", "document_id", docID)
	}
	return v.(types.ProcessResult), nil
}

func (p *Processor) rebuildIndex(ctx context.Context, doc *types.Document) (types.ProcessResult, error) {
	claimed, err := p.store.ClaimProcessing(ctx, doc.ID)
	if err != nil {
		return types.ProcessResult{}, types.NewProcessingError("failed to update document status", err)
	}
	if !claimed {
		return types.ProcessResult{}, types.ProcessingError{
			Detail: "document is already being processed",
		}
	}

	text, err := p.loader.Load(ctx, doc.FileURL)
	if err != nil {
		return types.ProcessResult{}, p.fail(ctx, doc.ID, "failed to load document", err)
	}

	chunks := p.chunker.Chunk(text)

	// no extractable content: an empty index is still a complete one
	if len(chunks) == 0 {
		if err := p.store.ReplaceChunks(ctx, doc.ID, nil); err != nil {
			return types.ProcessResult{}, p.fail(ctx, doc.ID, "failed to store index", err)
		}
		return types.ProcessResult{DocumentID: doc.ID, Status: types.StatusReady, ChunksCreated: 0}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return types.ProcessResult{}, p.fail(ctx, doc.ID, "failed to embed chunks", err)
	}

	for i := range chunks {
		chunks[i].ID = uuid.New()
		chunks[i].DocID = doc.ID
		chunks[i].Embedding = vectors[i]
	}

	if err := p.store.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return types.ProcessResult{}, p.fail(ctx, doc.ID, "failed to store index", err)
	}

	p.logger.Info("document processed", "document_id", doc.ID, "chunks_created", len(chunks))
	return types.ProcessResult{
		DocumentID:    doc.ID,
		Status:        types.StatusReady,
		ChunksCreated: len(chunks),
	}, nil
}

// fail records the failed status; the transition is the only persisted side
// effect of a failed run, so the document can always be reprocessed.
func (p *Processor) fail(ctx context.Context, docID uuid.UUID, detail string, cause error) error {
	procErr := types.NewProcessingError(detail, cause)
	if err := p.store.MarkFailed(ctx, docID, procErr.Error()); err != nil {
		p.logger.Error("failed to mark document as failed", "document_id", docID, "error", err)
	}
	return procErr
}
