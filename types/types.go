package types

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	StatusUnprocessed DocumentStatus = "unprocessed"
	StatusProcessing  DocumentStatus = "processing"
	StatusReady       DocumentStatus = "ready"
	StatusFailed      DocumentStatus = "failed"
)

type Document struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	FileURL    string
	Status     DocumentStatus
	ChunkCount int
	ErrorMsg   string
	UpdatedAt  time.Time
}

// Chunk is one contiguous span of a document's extracted text.
// Index is 0-based and contiguous within a document; StartChar/EndChar are
// character offsets into the source text.
type Chunk struct {
	ID        uuid.UUID
	DocID     uuid.UUID
	Index     int
	Content   string
	StartChar int
	EndChar   int
	Embedding []float32
}

// RetrievedChunk is a chunk with its similarity to a query vector.
type RetrievedChunk struct {
	Chunk Chunk
	Score float64
}

type Source struct {
	Content  string         `json:"content"`
	Metadata SourceMetadata `json:"metadata"`
}

type SourceMetadata struct {
	ChunkIndex int       `json:"chunk_index"`
	DocumentID uuid.UUID `json:"document_id"`
}

type ChatAnswer struct {
	Answer  string
	Sources []Source
}

type ProcessResult struct {
	DocumentID    uuid.UUID
	Status        DocumentStatus
	ChunksCreated int
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type MCQQuestion struct {
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correct_answer_index"`
	Explanation        string   `json:"explanation"`
}

type MCQResult struct {
	Questions  []MCQQuestion
	DocumentID uuid.UUID
	Difficulty Difficulty
}
