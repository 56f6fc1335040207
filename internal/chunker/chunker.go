// Package chunker provides an overlapping word-window text chunker.
package chunker

import (
	"strings"

	"github.com/arden-labs/ragline/internal/core/domain"
)

// DefaultMaxWords is the default number of words per chunk.
const DefaultMaxWords = 400

// DefaultOverlap is the default number of words shared between
// consecutive chunks.
const DefaultOverlap = 50

// Chunker splits raw text into overlapping word windows. The overlap keeps
// semantic continuity across window boundaries: a concept split across a
// boundary is repeated in the following chunk.
type Chunker struct {
	maxWords int
	overlap  int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxWords sets the window size in words.
func WithMaxWords(n int) Option {
	return func(c *Chunker) {
		c.maxWords = n
	}
}

// WithOverlap sets the overlap between windows in words.
func WithOverlap(n int) Option {
	return func(c *Chunker) {
		c.overlap = n
	}
}

// New creates a chunker with the given options. It returns
// domain.ErrInvalidChunking when maxWords is not positive, overlap is
// negative, or overlap >= maxWords (which would loop forever); invalid
// parameters are a configuration error, not something to silently clamp.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxWords: DefaultMaxWords,
		overlap:  DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxWords <= 0 || c.overlap < 0 || c.overlap >= c.maxWords {
		return nil, domain.ErrInvalidChunking
	}

	return c, nil
}

// MaxWords returns the configured window size.
func (c *Chunker) MaxWords() int {
	return c.maxWords
}

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Split cuts text into windows of maxWords words, advancing the window start
// by (maxWords - overlap) until the start index reaches the word count.
// Trailing windows may be shorter than maxWords. Empty or whitespace-only
// text yields nil. For N words the chunk count is ceil(N / (maxWords-overlap)).
func (c *Chunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.maxWords - c.overlap
	estimated := (len(words) + step - 1) / step
	chunks := make([]string, 0, estimated)

	for start := 0; start < len(words); start += step {
		end := start + c.maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}

	return chunks
}
