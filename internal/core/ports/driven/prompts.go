package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return the entry
	// from DefaultPrompts or an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// Templates use fmt explicit argument indexes so user edits may reorder them.
const (
	// PromptTextQA answers a query from one block of context.
	// Arguments: %[1]s context, %[2]s query.
	PromptTextQA = "text_qa"

	// PromptRefine revises an existing answer with new context.
	// Arguments: %[1]s query, %[2]s existing answer, %[3]s context.
	PromptRefine = "refine"

	// PromptSummarize answers a query from several passages or partial answers.
	// Arguments: %[1]s context, %[2]s query.
	PromptSummarize = "summarize"

	// PromptGlossaryKeywords requests the glossary phrases.
	// Arguments: %[1]s item type, %[2]d count, %[3]s authors, %[4]s tags.
	PromptGlossaryKeywords = "glossary_keywords"

	// PromptGlossaryTopUp requests the missing phrases.
	// Arguments: %[1]d remaining count, %[2]s phrases already found.
	PromptGlossaryTopUp = "glossary_topup"

	// PromptGlossaryDefinition requests the definition of one phrase.
	// Arguments: %[1]s tags, %[2]s phrase, %[3]d word count.
	PromptGlossaryDefinition = "glossary_definition"
)

// DefaultPrompts holds the built-in templates for every well-known prompt.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var DefaultPrompts = map[string]string{
	PromptTextQA: `Context information is below.
---------------------
%[1]s
---------------------
Given the context information and not prior knowledge, answer the query.
Query: %[2]s
Answer:`,

	PromptRefine: `The original query is as follows: %[1]s
We have provided an existing answer: %[2]s
We have the opportunity to refine the existing answer (only if needed) with some more context below.
------------
%[3]s
------------
Given the new context, refine the original answer to better answer the query. If the context isn't useful, return the original answer.
Refined Answer:`,

	PromptSummarize: `Context information from multiple sources is below.
---------------------
%[1]s
---------------------
Given the information from multiple sources and not prior knowledge, answer the query.
Query: %[2]s
Answer:`,

	PromptGlossaryKeywords: `As an expert analyzing this academic %[1]s, identify exactly %[2]d key technical concepts or findings.

Requirements:
1. Extract exactly %[2]d distinct technical concepts
2. Each concept should be 1-7 words long
3. Focus on novel, specific, and technical terminology
4. Avoid basic or general concepts
5. Consider the authors' (%[3]s) main contributions
6. Look beyond these basic tags: %[4]s

Format: Return ONLY a semicolon-separated list of concepts, nothing else.`,

	PromptGlossaryTopUp: `Provide %[1]d more technical concepts from the document, different from: %[2]s
Format: semicolon-separated list only.`,

	PromptGlossaryDefinition: `As an expert in %[1]s, explain the concept: '%[2]s'

Requirements:
1. Use exactly %[3]d words
2. Focus only on explaining '%[2]s' as used in this document
3. Use technical, precise language - do not simplify
4. Do not mention the concept name, authors, or document title
5. Start directly with the explanation

Format: Provide only the explanation, no introductions or conclusions.`,
}

// PromptStoreAware is an optional interface for services that can use custom prompts.
// Services implementing this interface can have their prompt templates customised
// by injecting a PromptStore after construction.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service uses DefaultPrompts.
	SetPromptStore(store PromptStore)
}
