package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// NoDefinition is used when the model returned an empty definition.
const NoDefinition = "No definition available."

// GlossaryEntry is one keyword and its definition.
type GlossaryEntry struct {
	Keyword    string `json:"keyword" yaml:"keyword"`
	Definition string `json:"definition" yaml:"definition"`
}

// Glossary is an ordered list of entries in extraction order.
// Keywords are not deduplicated.
type Glossary []GlossaryEntry

// Keywords returns the keywords in order.
func (g Glossary) Keywords() []string {
	out := make([]string, len(g))
	for i, e := range g {
		out[i] = e.Keyword
	}
	return out
}

// Markdown renders the glossary as "**keyword**: definition" paragraphs.
func (g Glossary) Markdown() string {
	var b strings.Builder
	for _, e := range g {
		def := strings.ReplaceAll(strings.TrimSpace(e.Definition), "\r", "")
		def = strings.ReplaceAll(def, "\n", " ")
		fmt.Fprintf(&b, "**%s**: %s\n\n", strings.TrimSpace(e.Keyword), def)
	}
	return b.String()
}

// ParseKeywords splits a semicolon-separated model response into phrases.
func ParseKeywords(response string) []string {
	parts := strings.Split(strings.TrimSpace(response), ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if k := strings.TrimSpace(p); k != "" {
			out = append(out, k)
		}
	}
	return out
}

var (
	boldHeadingLine = regexp.MustCompile(`^\s*\*\*[^*]+\*\*:?\s*$`)
	bulletPrefix    = regexp.MustCompile(`^\s*[-•*](?:\s+|$)`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// NormalizeDefinition cleans a model-written definition.
// Lines holding only a bold heading are dropped, remaining bold markers and
// list bullets are stripped and all whitespace collapses to single spaces.
func NormalizeDefinition(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NoDefinition
	}

	lines := strings.Split(strings.ReplaceAll(raw, "\r", ""), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if boldHeadingLine.MatchString(line) {
			continue
		}
		line = strings.ReplaceAll(line, "**", "")
		line = bulletPrefix.ReplaceAllString(line, "")
		kept = append(kept, line)
	}

	def := strings.TrimSpace(whitespaceRun.ReplaceAllString(strings.Join(kept, " "), " "))
	if def == "" {
		return NoDefinition
	}
	return def
}
