package chunker

import (
	"strings"
)

// Options controls how text is chunked.
type Options struct {
	MaxTokens int
	Overlap   int
}

// Chunk represents a slice of the document text.
type Chunk struct {
	Index      int
	Text       string
	TokenCount int
}

// ChunkText performs a simple token-based sliding window with overlap.
// Tokens are approximated by whitespace-delimited words to avoid heavy dependencies.
func ChunkText(text string, opts Options) []Chunk {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 400
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}

	words := strings.Fields(text)
	var chunks []Chunk
	if len(words) == 0 {
		return chunks
	}

	step := opts.MaxTokens - opts.Overlap
	if step <= 0 {
		step = opts.MaxTokens
	}

	for start := 0; start < len(words); start += step {
		end := start + opts.MaxTokens
		if end > len(words) {
			end = len(words)
		}
		segment := strings.Join(words[start:end], " ")
		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Text:       segment,
			TokenCount: end - start,
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Condense shrinks text to roughly budget tokens so it fits a prompt.
// Short text passes through untouched. Long text is chunked and sampled
// evenly from start to end, so the excerpt still spans the whole document
// rather than just its opening.
func Condense(text string, budget int) string {
	if budget <= 0 {
		budget = 3000
	}
	words := strings.Fields(text)
	if len(words) <= budget {
		return text
	}

	// Chunk at a tenth of the budget and pick every k-th chunk until full.
	chunkSize := budget / 10
	if chunkSize < 1 {
		chunkSize = budget
	}
	chunks := ChunkText(text, Options{MaxTokens: chunkSize})
	stride := (len(chunks)*chunkSize + budget - 1) / budget
	if stride < 1 {
		stride = 1
	}

	var parts []string
	used := 0
	for i := 0; i < len(chunks) && used+chunks[i].TokenCount <= budget; i += stride {
		parts = append(parts, chunks[i].Text)
		used += chunks[i].TokenCount
	}
	return strings.Join(parts, "\n\n")
}

