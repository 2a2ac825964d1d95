package driving

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// AssistantService answers questions and builds glossaries over library documents.
type AssistantService interface {
	// Answer answers a question from one or more documents.
	// Citekeys that cannot be resolved or indexed are dropped; when none
	// remain it returns domain.ErrNoValidIndexes.
	Answer(ctx context.Context, req AnswerRequest) (*AnswerResult, error)

	// BuildGlossary extracts keyword definitions from a single document.
	// More than one citekey returns domain.ErrUnsupportedMultiDocument.
	BuildGlossary(ctx context.Context, req GlossaryRequest) (*GlossaryResult, error)
}

// AnswerRequest is a question over a set of documents.
type AnswerRequest struct {
	// Citekeys are the documents to answer from, in label order.
	Citekeys []domain.Citekey

	// Question is the natural-language question.
	Question string

	// Model overrides the configured LLM model.
	Model string

	// WordCount is the target answer length. Zero uses the configured default.
	WordCount int

	// Mode is the synthesis mode. Empty uses the configured default.
	Mode domain.SynthesisMode
}

// AnswerResult is a synthesised answer and the documents it drew on.
type AnswerResult struct {
	// Text is the answer with HTML removed.
	Text string `json:"text"`

	// Citekeys are the documents that contributed, in input order.
	Citekeys []domain.Citekey `json:"citekeys"`

	// Sources are the retrieved passages.
	Sources []domain.SourcePassage `json:"sources,omitempty"`
}

// GlossaryRequest asks for a glossary of one document.
type GlossaryRequest struct {
	// Citekeys must hold exactly one document.
	Citekeys []domain.Citekey

	// Count is the number of keywords. Zero uses the configured default.
	Count int

	// WordsPerDefinition is the definition length. Zero uses the configured default.
	WordsPerDefinition int

	// Model overrides the configured LLM model.
	Model string
}

// GlossaryResult is an ordered glossary for one document.
type GlossaryResult struct {
	// Citekey is the document the glossary describes.
	Citekey domain.Citekey `json:"citekey"`

	// Entries are in extraction order.
	Entries domain.Glossary `json:"entries"`
}
