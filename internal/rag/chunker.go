package rag

import "unicode/utf8"

// Default window parameters, tuned for curriculum documents.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Chunk is a bounded substring of a source document, the unit of retrieval.
type Chunk struct {
	Index       int
	StartOffset int
	Text        string
}

// SplitText slides a window of chunkSize bytes forward by chunkSize-overlap
// at a time. Chunks of one document cover the full text with overlapping
// tails, ordered by StartOffset. Window edges back off to the nearest rune
// start, so multibyte text never splits mid-rune. Pure function of its
// arguments, no I/O.
func SplitText(text string, chunkSize, overlap int) ([]Chunk, error) {
	if chunkSize <= 0 {
		return nil, &ConfigError{Reason: "chunk size must be positive"}
	}
	if overlap < 0 {
		return nil, &ConfigError{Reason: "overlap must not be negative"}
	}
	// overlap >= chunkSize would make zero forward progress
	if overlap >= chunkSize {
		return nil, &ConfigError{Reason: "overlap must be smaller than chunk size"}
	}

	if len(text) <= chunkSize {
		return []Chunk{{Index: 0, StartOffset: 0, Text: text}}, nil
	}

	step := chunkSize - overlap
	chunks := make([]Chunk, 0, (len(text)+step-1)/step)
	for start := 0; start < len(text); start += step {
		s := start
		for s > 0 && !utf8.RuneStart(text[s]) {
			s--
		}
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			for end > s && !utf8.RuneStart(text[end]) {
				end--
			}
		}
		chunks = append(chunks, Chunk{
			Index:       len(chunks),
			StartOffset: s,
			Text:        text[s:end],
		})
	}
	return chunks, nil
}
