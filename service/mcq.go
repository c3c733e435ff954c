package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"docchat/model"
	"docchat/store"
	"docchat/types"

	"github.com/google/uuid"
)

const (
	mcqDefaultQuestions = 5
	mcqMaxQuestions     = 20
	mcqRetrievalK       = 6

	// a generic query pulls diverse content out of the index
	mcqRetrievalQuery = "key concepts, facts, and important information"
)

const mcqSystemPrompt = `You are an expert educator creating multiple choice questions.`

const mcqPromptTemplate = `DOCUMENT CONTENT:
%s

INSTRUCTIONS:
- Generate exactly %d multiple choice questions based on the document content above.
- Difficulty level: %s
  - easy: Basic recall and simple facts
  - medium: Understanding and application of concepts
  - hard: Analysis, synthesis, or evaluation
- Each question must have exactly 4 options (A, B, C, D).
- Only ONE option should be correct.
- Distractors should be plausible but clearly incorrect.
- Include a brief explanation for why the correct answer is correct.

OUTPUT FORMAT (JSON):
{
  "questions": [
    {
      "question": "Question text here?",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer_index": 0,
      "explanation": "Explanation of why this answer is correct."
    }
  ]
}

Generate the questions now:`

// MCQ generates practice questions from a processed document's content.
type MCQ struct {
	store     store.DBStorer
	embedder  model.Embedder
	generator model.Generator
	logger    *slog.Logger
}

func NewMCQ(s store.DBStorer, e model.Embedder, g model.Generator) *MCQ {
	return &MCQ{
		store:     s,
		embedder:  e,
		generator: g,
		logger:    slog.Default(),
	}
}

func (m *MCQ) Generate(ctx context.Context, userID, docID uuid.UUID, numQuestions int, difficulty types.Difficulty) (types.MCQResult, error) {
	if numQuestions == 0 {
		numQuestions = mcqDefaultQuestions
	}
	if numQuestions < 1 || numQuestions > mcqMaxQuestions {
		return types.MCQResult{}, types.InvalidInputError{
			Detail: fmt.Sprintf("num_questions must be in [1, %d], got %d", mcqMaxQuestions, numQuestions),
		}
	}
	if difficulty == "" {
		difficulty = types.DifficultyMedium
	}
	switch difficulty {
	case types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard:
	default:
		return types.MCQResult{}, types.InvalidInputError{
			Detail: fmt.Sprintf("unknown difficulty %q", difficulty),
		}
	}

	doc, err := authorize(ctx, m.store, userID, docID)
	if err != nil {
		return types.MCQResult{}, err
	}
	if err := requireReady(doc); err != nil {
		return types.MCQResult{}, err
	}

	results, err := m.retrieve(ctx, docID, numQuestions)
	if err != nil {
		return types.MCQResult{}, err
	}
	if len(results) == 0 {
		return types.MCQResult{Questions: []types.MCQQuestion{}, DocumentID: docID, Difficulty: difficulty}, nil
	}

	prompt := fmt.Sprintf(mcqPromptTemplate, formatContext("Section", results), numQuestions, difficulty)
	output, err := m.generator.Generate(ctx, mcqSystemPrompt, prompt)
	if err != nil {
		return types.MCQResult{}, types.NewProcessingError("MCQ generation failed", err)
	}

	questions, err := parseMCQOutput(output)
	if err != nil {
		return types.MCQResult{}, types.NewProcessingError("failed to parse MCQ output", err)
	}

	m.logger.Info("MCQs generated", "document_id", docID, "requested", numQuestions, "generated", len(questions))
	return types.MCQResult{
		Questions:  questions,
		DocumentID: docID,
		Difficulty: difficulty,
	}, nil
}

// retrieve pulls more chunks for more questions, never fewer than the base k.
func (m *MCQ) retrieve(ctx context.Context, docID uuid.UUID, numQuestions int) ([]types.RetrievedChunk, error) {
	k := mcqRetrievalK
	if numQuestions*2 > k {
		k = numQuestions * 2
	}

	queryVec, err := m.embedder.Embed(ctx, mcqRetrievalQuery)
	if err != nil {
		return nil, types.NewProcessingError("failed to embed retrieval query", err)
	}

	results, err := m.store.Search(ctx, docID, queryVec, k)
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

type mcqOutput struct {
	Questions []types.MCQQuestion `json:"questions"`
}

// parseMCQOutput extracts the JSON object from model output, which may be
// wrapped in markdown fences or prose, and drops malformed questions.
func parseMCQOutput(output string) ([]types.MCQQuestion, error) {
	jsonStr, err := extractJSON(output)
	if err != nil {
		return nil, err
	}

	var parsed mcqOutput
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON in model output: %w", err)
	}
	if parsed.Questions == nil {
		return nil, fmt.Errorf("missing 'questions' key in model output")
	}

	questions := make([]types.MCQQuestion, 0, len(parsed.Questions))
	for _, q := range parsed.Questions {
		if q.Question == "" || q.Explanation == "" {
			continue
		}
		if len(q.Options) != 4 {
			continue
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex > 3 {
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func extractJSON(s string) (string, error) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", fmt.Errorf("no valid json found")
	}
	return s[start : end+1], nil
}
