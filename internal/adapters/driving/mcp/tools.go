package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Citekeys  []string `json:"citekeys" jsonschema:"citekeys of the documents to answer from"`
	Question  string   `json:"question" jsonschema:"the question to answer"`
	Model     string   `json:"model,omitempty" jsonschema:"LLM model override"`
	WordCount int      `json:"word_count,omitempty" jsonschema:"target answer length in words"`
	Mode      string   `json:"mode,omitempty" jsonschema:"synthesis mode: refine or tree_summarize"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Citekeys []string       `json:"citekeys"`
	Sources  []SourceOutput `json:"sources,omitempty"`
}

// SourceOutput is one retrieved passage.
type SourceOutput struct {
	Label   string  `json:"label"`
	Citekey string  `json:"citekey"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
}

// GlossaryInput is the input schema for the glossary tool.
type GlossaryInput struct {
	Citekey            string `json:"citekey" jsonschema:"citekey of the document"`
	Count              int    `json:"count,omitempty" jsonschema:"number of keywords to define"`
	WordsPerDefinition int    `json:"words_per_definition,omitempty" jsonschema:"target definition length in words"`
	Model              string `json:"model,omitempty" jsonschema:"LLM model override"`
}

// GlossaryOutput is the output schema for the glossary tool.
type GlossaryOutput struct {
	Citekey  string                 `json:"citekey"`
	Entries  []domain.GlossaryEntry `json:"entries"`
	Markdown string                 `json:"markdown"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	IndexedOnly bool `json:"indexed_only,omitempty" jsonschema:"only list documents that already have an index"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes one library entry.
type DocumentOutput struct {
	Citekey  string `json:"citekey"`
	Title    string `json:"title"`
	Authors  string `json:"authors,omitempty"`
	Year     string `json:"year,omitempty"`
	HasPDF   bool   `json:"has_pdf"`
	HasIndex bool   `json:"has_index"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from one or more library documents, identified by citekey",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "glossary",
		Description: "Extract keywords from a single library document and define them",
	}, s.handleGlossary)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents in the reference library with their citekeys",
	}, s.handleListDocuments)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if len(input.Citekeys) == 0 {
		return nil, AskOutput{}, toolError(fmt.Errorf("at least one citekey is required: %w", domain.ErrInvalidInput))
	}
	mode, ok := domain.ParseSynthesisMode(input.Mode)
	if !ok {
		return nil, AskOutput{}, toolError(fmt.Errorf("unknown mode %q: %w", input.Mode, domain.ErrInvalidInput))
	}

	result, err := s.ports.Assistant.Answer(ctx, driving.AnswerRequest{
		Citekeys:  input.Citekeys,
		Question:  input.Question,
		Model:     input.Model,
		WordCount: input.WordCount,
		Mode:      mode,
	})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	output := AskOutput{
		Answer:   result.Text,
		Citekeys: result.Citekeys,
		Sources:  make([]SourceOutput, len(result.Sources)),
	}
	for i, src := range result.Sources {
		output.Sources[i] = SourceOutput{
			Label:   src.Label,
			Citekey: src.Citekey,
			Score:   src.Score,
			Text:    src.Text,
		}
	}
	return nil, output, nil
}

// handleGlossary handles the glossary tool invocation.
func (s *Server) handleGlossary(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GlossaryInput,
) (*mcp.CallToolResult, GlossaryOutput, error) {
	if input.Citekey == "" {
		return nil, GlossaryOutput{}, toolError(fmt.Errorf("citekey is required: %w", domain.ErrInvalidInput))
	}

	result, err := s.ports.Assistant.BuildGlossary(ctx, driving.GlossaryRequest{
		Citekeys:           []domain.Citekey{input.Citekey},
		Count:              input.Count,
		WordsPerDefinition: input.WordsPerDefinition,
		Model:              input.Model,
	})
	if err != nil {
		return nil, GlossaryOutput{}, toolError(err)
	}

	return nil, GlossaryOutput{
		Citekey:  result.Citekey,
		Entries:  result.Entries,
		Markdown: result.Entries.Markdown(),
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	output := ListDocumentsOutput{Documents: []DocumentOutput{}}
	if s.ports.Documents == nil {
		return nil, output, nil
	}

	entries, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, toolError(err)
	}

	for i := range entries {
		e := &entries[i]
		if input.IndexedOnly && !e.HasIndex {
			continue
		}
		output.Documents = append(output.Documents, DocumentOutput{
			Citekey:  e.Citekey,
			Title:    e.Title,
			Authors:  e.Authors,
			Year:     e.Year,
			HasPDF:   e.HasAttachment(),
			HasIndex: e.HasIndex,
		})
	}
	output.Count = len(output.Documents)
	return nil, output, nil
}
