package domain

import (
	"regexp"
	"strings"
)

// SynthesisMode selects how retrieved passages are combined into one answer.
type SynthesisMode string

// Available synthesis modes.
const (
	// SynthesisRefine revises a running answer one passage at a time.
	SynthesisRefine SynthesisMode = "refine"

	// SynthesisTreeSummarize answers passage groups and combines the answers bottom-up.
	SynthesisTreeSummarize SynthesisMode = "tree_summarize"
)

// DefaultSynthesisMode is used when no mode is requested.
const DefaultSynthesisMode = SynthesisTreeSummarize

// IsValid returns true if the synthesis mode is recognised.
func (m SynthesisMode) IsValid() bool {
	switch m {
	case SynthesisRefine, SynthesisTreeSummarize:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SynthesisMode) String() string {
	return string(m)
}

// Description returns a human-readable description of the mode.
func (m SynthesisMode) Description() string {
	switch m {
	case SynthesisRefine:
		return "Refine (revise answer passage by passage)"
	case SynthesisTreeSummarize:
		return "Tree summarize (combine passage answers bottom-up)"
	default:
		return unknownDescription
	}
}

// ParseSynthesisMode maps a user-supplied string to a mode.
// Empty input yields the default mode.
func ParseSynthesisMode(s string) (SynthesisMode, bool) {
	if s == "" {
		return DefaultSynthesisMode, true
	}
	m := SynthesisMode(strings.ToLower(strings.TrimSpace(s)))
	return m, m.IsValid()
}

// SourcePassage is one retrieved passage that contributed to an answer.
type SourcePassage struct {
	// NodeID identifies the stored record.
	NodeID string `json:"node_id"`

	// Citekey is the document the passage came from.
	Citekey Citekey `json:"citekey"`

	// Label is the synthetic document label in composed queries ("Document 2").
	// Empty for single-document queries.
	Label string `json:"label,omitempty"`

	// Text is the passage content.
	Text string `json:"text"`

	// Score is the cosine similarity to the question (0-1).
	Score float64 `json:"score"`
}

// Answer is the synthesised response to a question.
// It is the single response shape produced at the language-model boundary.
type Answer struct {
	// Text is the answer text.
	Text string `json:"text"`

	// Sources are the passages the answer was synthesised from, best first.
	Sources []SourcePassage `json:"sources,omitempty"`
}

var htmlTag = regexp.MustCompile(`<[^>]*>`)

// StripHTML removes HTML tags from s.
func StripHTML(s string) string {
	return htmlTag.ReplaceAllString(s, "")
}
