package chunker

import (
	"fmt"
	"strings"

	"docchat/types"
)

// boundary separators in preference order, same family the
// recursive splitter this replaced used: paragraph, line, sentence, word.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into overlapping windows of at most Size characters,
// preferring to cut at a natural boundary near the window edge. Chunks are
// exact slices of the input, so concatenating the non-overlapping spans
// reconstructs the original text.
type Chunker struct {
	size      int
	overlap   int
	tolerance int
}

func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, size), got %d", overlap)
	}
	tolerance := size / 5
	if tolerance < 1 {
		tolerance = 1
	}
	return &Chunker{size: size, overlap: overlap, tolerance: tolerance}, nil
}

func (c *Chunker) Size() int    { return c.size }
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into an ordered sequence with 0-based contiguous indexes
// and strictly increasing start offsets (rune offsets into text). Empty or
// whitespace-only input yields no chunks.
func (c *Chunker) Chunk(text string) []types.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	var chunks []types.Chunk

	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.cutAt(runes, start, end)
		}

		chunks = append(chunks, types.Chunk{
			Index:     len(chunks),
			Content:   string(runes[start:end]),
			StartChar: start,
			EndChar:   end,
		})

		if end == len(runes) {
			break
		}

		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// cutAt moves the window edge back to the nearest boundary within tolerance.
// The separator stays with the earlier chunk. Falls back to a hard cut.
func (c *Chunker) cutAt(runes []rune, start, end int) int {
	low := end - c.tolerance
	if low <= start {
		low = start + 1
	}
	window := string(runes[low:end])

	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			cut := low + len([]rune(window[:i])) + len([]rune(sep))
			if cut > start && cut <= end {
				return cut
			}
		}
	}
	return end
}
