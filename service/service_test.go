package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"sync"

	"docchat/store"
	"docchat/types"

	"github.com/google/uuid"
)

// fakeStore is an in-memory DBStorer with the same search contract as the
// Postgres store: cosine similarity, descending score, chunk position as the
// tie-break, at most k results.
type fakeStore struct {
	mu sync.Mutex

	docs   map[uuid.UUID]*types.Document
	chunks map[uuid.UUID][]types.Chunk

	replaceCalls int
	searchErr    error
	claimErr     error
}

func newFakeStore(docs ...*types.Document) *fakeStore {
	s := &fakeStore{
		docs:   make(map[uuid.UUID]*types.Document),
		chunks: make(map[uuid.UUID][]types.Chunk),
	}
	for _, d := range docs {
		cp := *d
		s.docs[d.ID] = &cp
	}
	return s
}

func (s *fakeStore) GetDocument(_ context.Context, docID uuid.UUID) (*types.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeStore) ClaimProcessing(_ context.Context, docID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimErr != nil {
		return false, s.claimErr
	}
	doc, ok := s.docs[docID]
	if !ok {
		return false, store.ErrNotFound
	}
	if doc.Status == types.StatusProcessing {
		return false, nil
	}
	doc.Status = types.StatusProcessing
	return true, nil
}

func (s *fakeStore) MarkFailed(_ context.Context, docID uuid.UUID, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return store.ErrNotFound
	}
	doc.Status = types.StatusFailed
	doc.ErrorMsg = detail
	return nil
}

func (s *fakeStore) ReplaceChunks(_ context.Context, docID uuid.UUID, chunks []types.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return store.ErrNotFound
	}
	s.replaceCalls++
	s.chunks[docID] = append([]types.Chunk(nil), chunks...)
	doc.Status = types.StatusReady
	doc.ChunkCount = len(chunks)
	doc.ErrorMsg = ""
	return nil
}

func (s *fakeStore) Search(_ context.Context, docID uuid.UUID, queryVec []float32, k int) ([]types.RetrievedChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.searchErr != nil {
		return nil, s.searchErr
	}

	results := make([]types.RetrievedChunk, 0, len(s.chunks[docID]))
	for _, c := range s.chunks[docID] {
		results = append(results, types.RetrievedChunk{
			Chunk: c,
			Score: cosine(queryVec, c.Embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Index < results[j].Chunk.Index
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (s *fakeStore) document(docID uuid.UUID) types.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.docs[docID]
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// fakeEmbedder returns fixed vectors for known texts and a deterministic
// hash-derived unit vector otherwise.
type fakeEmbedder struct {
	dim  int
	vecs map[string][]float32
	err  error
}

func newFakeEmbedder(dim int) *fakeEmbedder {
	return &fakeEmbedder{dim: dim, vecs: make(map[string][]float32)}
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	if v, ok := e.vecs[text]; ok {
		return v, nil
	}
	return hashVector(text, e.dim), nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (e *fakeEmbedder) Dimension() int { return e.dim }

func hashVector(text string, dim int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, dim)
	var norm float64
	for i := range v {
		seed = seed*6364136223846793005 + 1442695040888963407
		v[i] = float32(seed%1000)/1000 + 0.001
		norm += float64(v[i]) * float64(v[i])
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// fakeGenerator returns a canned answer and records the last prompt.
type fakeGenerator struct {
	mu sync.Mutex

	answer string
	err    error

	calls      int
	lastSystem string
	lastPrompt string
}

func (g *fakeGenerator) Generate(_ context.Context, system, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastSystem = system
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

// fakeLoader serves a fixed text, optionally blocking until released.
type fakeLoader struct {
	mu sync.Mutex

	text  string
	err   error
	gate  chan struct{}
	calls int
}

func (l *fakeLoader) Load(ctx context.Context, _ string) (string, error) {
	l.mu.Lock()
	l.calls++
	gate := l.gate
	text, err := l.text, l.err
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (l *fakeLoader) loadCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

var errBoom = errors.New("boom")
