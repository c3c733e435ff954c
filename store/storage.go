package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"docchat/types"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var ErrNotFound = errors.New("document not found")

type DBStorer interface {
	GetDocument(ctx context.Context, docID uuid.UUID) (*types.Document, error)
	// ClaimProcessing flips the document to processing unless another
	// indexing run already holds it. Reports whether the claim succeeded.
	ClaimProcessing(ctx context.Context, docID uuid.UUID) (bool, error)
	MarkFailed(ctx context.Context, docID uuid.UUID, detail string) error
	// ReplaceChunks commits the new index in one transaction: old chunks out,
	// new chunks in, status ready. Readers see the prior complete index until
	// the commit.
	ReplaceChunks(ctx context.Context, docID uuid.UUID, chunks []types.Chunk) error
	Search(ctx context.Context, docID uuid.UUID, queryVec []float32, k int) ([]types.RetrievedChunk, error)
}

type PostgresStore struct {
	pool   *pgxpool.Pool
	dim    int
	logger *slog.Logger
}

func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool:   pool,
		dim:    dim,
		logger: slog.Default(),
	}, nil
}

func (p *PostgresStore) GetDocument(ctx context.Context, docID uuid.UUID) (*types.Document, error) {
	query := `SELECT id, user_id, file_url, status, chunk_count, COALESCE(error_message, ''), updated_at
		FROM documents WHERE id = $1`

	doc := &types.Document{}
	err := p.pool.QueryRow(ctx, query, docID).Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileURL,
		&doc.Status,
		&doc.ChunkCount,
		&doc.ErrorMsg,
		&doc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) ClaimProcessing(ctx context.Context, docID uuid.UUID) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`UPDATE documents SET status = 'processing', updated_at = now()
		 WHERE id = $1 AND status <> 'processing'`, docID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (p *PostgresStore) MarkFailed(ctx context.Context, docID uuid.UUID, detail string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE documents SET status = 'failed', error_message = $2, updated_at = now()
		 WHERE id = $1`, docID, detail)
	return err
}

func (p *PostgresStore) ReplaceChunks(ctx context.Context, docID uuid.UUID, chunks []types.Chunk) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chunks WHERE doc_id = $1`, docID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}

	insert := `INSERT INTO chunks (id, doc_id, position, content, start_char, end_char, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, c := range chunks {
		if _, err := tx.Exec(ctx, insert,
			c.ID, c.DocID, c.Index, c.Content, c.StartChar, c.EndChar, toPgVector(c.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE documents SET status = 'ready', chunk_count = $2, error_message = '', updated_at = now()
		 WHERE id = $1`, docID, len(chunks)); err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	p.logger.Info("index replaced", "document_id", docID, "chunks", len(chunks))
	return nil
}

func toPgVector(v []float32) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%f", x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Search returns the k nearest chunks of one document by cosine similarity,
// score = 1 - cosine distance, ties broken by ascending position.
func (p *PostgresStore) Search(ctx context.Context, docID uuid.UUID, queryVec []float32, k int) ([]types.RetrievedChunk, error) {
	if len(queryVec) != p.dim {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d", p.dim, len(queryVec))
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	vector := pgvector.NewVector(queryVec)

	query := `
		SELECT c.id, c.doc_id, c.position, c.content, c.start_char, c.end_char,
		       1 - (c.embedding <=> $2) AS score
		FROM chunks c
		WHERE c.doc_id = $1 AND c.embedding IS NOT NULL
		ORDER BY c.embedding <=> $2, c.position
		LIMIT $3
	`
	rows, err := p.pool.Query(ctx, query, docID, vector, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []types.RetrievedChunk
	for rows.Next() {
		var r types.RetrievedChunk
		if err := rows.Scan(
			&r.Chunk.ID,
			&r.Chunk.DocID,
			&r.Chunk.Index,
			&r.Chunk.Content,
			&r.Chunk.StartChar,
			&r.Chunk.EndChar,
			&r.Score,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL,
		file_url TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'unprocessed'
			CHECK (status IN ('unprocessed','processing','ready','failed')),
		chunk_count INT NOT NULL DEFAULT 0,
		error_message TEXT,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id UUID PRIMARY KEY,
		doc_id UUID NOT NULL REFERENCES documents(id),
		position INT NOT NULL,
		content TEXT NOT NULL,
		start_char INT NOT NULL,
		end_char INT NOT NULL,
		embedding vector(%d)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);
	`, p.dim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createTables(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("postgres connection pool closed")
	}
	return nil
}
