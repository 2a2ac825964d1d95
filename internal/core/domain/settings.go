package domain

import (
	"os"
	"path/filepath"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderLMStudio is a local LM Studio server (OpenAI-compatible API).
	AIProviderLMStudio AIProvider = "lmstudio"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is any OpenAI-compatible endpoint that needs an API key.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderLMStudio, AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderLMStudio || p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderLMStudio:
		return "LM Studio (local)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI-compatible (cloud)"
	default:
		return unknownDescription
	}
}

// Sampling holds pass-through generation parameters.
type Sampling struct {
	Temperature      float64
	TopP             float64
	PresencePenalty  float64
	FrequencyPenalty float64
}

// ZoteroSettings holds reference-manager configuration.
type ZoteroSettings struct {
	// BaseURL is the local API endpoint (default: http://localhost:23119).
	BaseURL string

	// StorageRoot is the local attachment storage directory (default: ~/Zotero/storage).
	StorageRoot string
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the default LLM model name. Requests may override it.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Timeout bounds a single completion call.
	Timeout time.Duration

	// Sampling holds the default generation parameters.
	Sampling Sampling
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings holds index storage configuration.
type IndexSettings struct {
	// Dir is where per-document index files live.
	Dir string

	// Concurrency bounds parallel index resolution across citekeys.
	Concurrency int

	// VerifySource rebuilds an index when its source file hash or embedding model changed.
	VerifySource bool
}

// Chunking strategies.
const (
	ChunkingSemantic = "semantic"
	ChunkingFixed    = "fixed"
)

// ChunkingSettings configures how extracted text is split.
type ChunkingSettings struct {
	// Strategy selects the chunker: "semantic" (default) or "fixed".
	Strategy string

	// BufferSize is the number of adjacent units embedded jointly.
	BufferSize int

	// BreakpointPercentile (0-100) controls chunk granularity; higher means fewer, larger chunks.
	BreakpointPercentile float64

	// ChunkSize is the fixed chunker's chunk length in characters.
	ChunkSize int

	// ChunkOverlap is the fixed chunker's overlap in characters.
	ChunkOverlap int
}

// QuerySettings holds question answering defaults.
type QuerySettings struct {
	// TopK is the number of passages retrieved per document.
	TopK int

	// WordCount is the target answer length.
	WordCount int

	// Mode is the default synthesis mode.
	Mode SynthesisMode

	// MaxPromptChars bounds the passage context packed into one prompt.
	MaxPromptChars int
}

// GlossarySettings holds glossary defaults.
type GlossarySettings struct {
	// Count is the number of keywords to extract.
	Count int

	// WordsPerDefinition is the target definition length.
	WordsPerDefinition int
}

// AppSettings holds all application settings.
type AppSettings struct {
	Zotero    ZoteroSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Index     IndexSettings
	Chunking  ChunkingSettings
	Query     QuerySettings
	Glossary  GlossarySettings
}

// Default values.
const (
	DefaultZoteroBaseURL        = "http://localhost:23119"
	DefaultLMStudioBaseURL      = "http://localhost:1234/v1"
	DefaultOllamaBaseURL        = "http://localhost:11434"
	DefaultLLMModel             = "meta-llama-3.1-8b-instruct"
	DefaultEmbeddingModel       = "text-embedding-bge-small-en-v1.5"
	DefaultLLMTimeout           = 400 * time.Second
	DefaultBufferSize           = 1
	DefaultBreakpointPercentile = 70
	DefaultChunkSize            = 1000
	DefaultChunkOverlap         = 200
	DefaultTopK                 = 2
	DefaultWordCount            = 300
	DefaultMaxPromptChars       = 12000
	DefaultGlossaryCount        = 5
	DefaultGlossaryWords        = 100
	DefaultIndexConcurrency     = 2
)

// DefaultSampling returns the generation parameters used for local models.
func DefaultSampling() Sampling {
	return Sampling{
		Temperature:      0.7,
		TopP:             0.9,
		PresencePenalty:  0.1,
		FrequencyPenalty: 0.1,
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// Both AI providers default to a local LM Studio server.
func DefaultAppSettings() AppSettings {
	home, _ := os.UserHomeDir()
	return AppSettings{
		Zotero: ZoteroSettings{
			BaseURL:     DefaultZoteroBaseURL,
			StorageRoot: filepath.Join(home, "Zotero", "storage"),
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderLMStudio,
			Model:    DefaultEmbeddingModel,
			BaseURL:  DefaultLMStudioBaseURL,
		},
		LLM: LLMSettings{
			Provider: AIProviderLMStudio,
			Model:    DefaultLLMModel,
			BaseURL:  DefaultLMStudioBaseURL,
			Timeout:  DefaultLLMTimeout,
			Sampling: DefaultSampling(),
		},
		Index: IndexSettings{
			Dir:          filepath.Join(home, ".refchat", "vector_database"),
			Concurrency:  DefaultIndexConcurrency,
			VerifySource: true,
		},
		Chunking: ChunkingSettings{
			Strategy:             ChunkingSemantic,
			BufferSize:           DefaultBufferSize,
			BreakpointPercentile: DefaultBreakpointPercentile,
			ChunkSize:            DefaultChunkSize,
			ChunkOverlap:         DefaultChunkOverlap,
		},
		Query: QuerySettings{
			TopK:           DefaultTopK,
			WordCount:      DefaultWordCount,
			Mode:           DefaultSynthesisMode,
			MaxPromptChars: DefaultMaxPromptChars,
		},
		Glossary: GlossarySettings{
			Count:              DefaultGlossaryCount,
			WordsPerDefinition: DefaultGlossaryWords,
		},
	}
}

// AllProviders returns every supported provider.
func AllProviders() []AIProvider {
	return []AIProvider{
		AIProviderLMStudio,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultBaseURLs returns the default endpoint for each provider.
func DefaultBaseURLs() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderLMStudio: DefaultLMStudioBaseURL,
		AIProviderOllama:   DefaultOllamaBaseURL,
		AIProviderOpenAI:   "https://api.openai.com/v1",
	}
}

// RequestConfig is the request-scoped model selection and answer shape.
// It is passed explicitly through every call instead of living in global state.
type RequestConfig struct {
	// Model is the LLM model for this request.
	Model string

	// Sampling holds generation parameters for this request.
	Sampling Sampling

	// WordCount is the target answer length.
	WordCount int

	// Mode is the synthesis mode.
	Mode SynthesisMode

	// TopK is the number of passages retrieved per document.
	TopK int

	// MaxPromptChars bounds the passage context packed into one prompt.
	MaxPromptChars int
}

// WithDefaults fills zero fields from settings.
func (c RequestConfig) WithDefaults(s AppSettings) RequestConfig {
	if c.Model == "" {
		c.Model = s.LLM.Model
	}
	if c.Sampling == (Sampling{}) {
		c.Sampling = s.LLM.Sampling
	}
	if c.WordCount <= 0 {
		c.WordCount = s.Query.WordCount
	}
	if !c.Mode.IsValid() {
		c.Mode = s.Query.Mode
	}
	if c.TopK <= 0 {
		c.TopK = s.Query.TopK
	}
	if c.MaxPromptChars <= 0 {
		c.MaxPromptChars = s.Query.MaxPromptChars
	}
	return c
}
