// Package semantic provides an embedding-driven text splitter.
//
// Text is split into sentence units, each unit is embedded together with its
// neighbours, and a new chunk starts wherever the cosine distance between
// adjacent units rises above a percentile of all observed distances.
package semantic

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure Splitter implements the interface.
var _ driven.Chunker = (*Splitter)(nil)

// DefaultBufferSize is the default number of units embedded jointly.
const DefaultBufferSize = 1

// DefaultBreakpointPercentile is the default distance percentile that starts a new chunk.
const DefaultBreakpointPercentile = 70.0

// Splitter merges consecutive sentences while they stay semantically close.
type Splitter struct {
	embedder   driven.EmbeddingService
	bufferSize int
	percentile float64
	newID      func() string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithBufferSize sets how many units are embedded jointly.
// A buffer of b embeds each unit with its b-1 neighbours on each side.
func WithBufferSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// WithBreakpointPercentile sets the breakpoint threshold (0-100).
// Higher values produce fewer, larger chunks.
func WithBreakpointPercentile(p float64) Option {
	return func(s *Splitter) {
		if p >= 0 && p <= 100 {
			s.percentile = p
		}
	}
}

// WithIDGenerator replaces the chunk ID source.
func WithIDGenerator(fn func() string) Option {
	return func(s *Splitter) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates a splitter that embeds through embedder.
func New(embedder driven.EmbeddingService, opts ...Option) *Splitter {
	s := &Splitter{
		embedder:   embedder,
		bufferSize: DefaultBufferSize,
		percentile: DefaultBreakpointPercentile,
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the chunker name.
func (s *Splitter) Name() string {
	return "semantic"
}

// Chunk splits text into semantically coherent chunks.
// An embedding failure yields no chunks and a logged warning.
func (s *Splitter) Chunk(ctx context.Context, text string) []domain.Chunk {
	units := SplitSentences(text)
	switch len(units) {
	case 0:
		return nil
	case 1:
		return []domain.Chunk{{ID: s.newID(), Content: units[0], Position: 0}}
	}

	groups := combineUnits(units, s.bufferSize)
	embeddings, err := s.embedder.EmbedBatch(ctx, groups)
	if err != nil {
		logger.Warn("semantic split: embedding %d units failed: %v", len(groups), err)
		return nil
	}
	if len(embeddings) != len(groups) {
		logger.Warn("semantic split: expected %d embeddings, got %d", len(groups), len(embeddings))
		return nil
	}

	distances := make([]float64, len(embeddings)-1)
	for i := range distances {
		distances[i] = 1 - domain.CosineSimilarity(embeddings[i], embeddings[i+1])
	}
	threshold := Percentile(distances, s.percentile)

	var chunks []domain.Chunk
	start := 0
	for i, d := range distances {
		if d > threshold {
			chunks = append(chunks, s.chunk(units[start:i+1], len(chunks)))
			start = i + 1
		}
	}
	if start < len(units) {
		chunks = append(chunks, s.chunk(units[start:], len(chunks)))
	}

	logger.Debug("semantic split: %d units, threshold %.4f, %d chunks", len(units), threshold, len(chunks))
	return chunks
}

func (s *Splitter) chunk(units []string, position int) domain.Chunk {
	return domain.Chunk{
		ID:       s.newID(),
		Content:  strings.Join(units, " "),
		Position: position,
	}
}

// combineUnits joins every unit with its bufferSize-1 neighbours on each side.
func combineUnits(units []string, bufferSize int) []string {
	out := make([]string, len(units))
	for i := range units {
		lo := max(0, i-(bufferSize-1))
		hi := min(len(units), i+bufferSize)
		out[i] = strings.Join(units[lo:hi], " ")
	}
	return out
}

// Percentile returns the p-th percentile of values using linear
// interpolation between the closest ranks. Returns 0 for no values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// SplitSentences splits text into sentence units.
// A unit ends at terminal punctuation (optionally followed by closing quotes
// or brackets) that is followed by whitespace, or at a blank line.
// Units are trimmed and internal whitespace runs collapse to one space.
func SplitSentences(text string) []string {
	var (
		units []string
		cur   strings.Builder
	)
	flush := func() {
		if u := strings.Join(strings.Fields(cur.String()), " "); u != "" {
			units = append(units, u)
		}
		cur.Reset()
	}

	runes := []rune(strings.ReplaceAll(text, "\r\n", "\n"))
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if r == '\n' && blankLineAt(runes, i) {
			flush()
			continue
		}

		cur.WriteRune(r)
		if !isTerminal(r) {
			continue
		}

		j := i + 1
		for j < len(runes) && isCloser(runes[j]) {
			cur.WriteRune(runes[j])
			j++
		}
		i = j - 1
		if j == len(runes) || unicode.IsSpace(runes[j]) {
			flush()
		}
	}
	flush()
	return units
}

// blankLineAt reports whether the newline at i starts a blank line.
func blankLineAt(runes []rune, i int) bool {
	for j := i + 1; j < len(runes); j++ {
		switch {
		case runes[j] == '\n':
			return true
		case !unicode.IsSpace(runes[j]):
			return false
		}
	}
	return false
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	default:
		return false
	}
}
