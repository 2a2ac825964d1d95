package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/refchat/internal/core/domain"
	"github.com/custodia-labs/refchat/internal/core/ports/driven"
	"github.com/custodia-labs/refchat/internal/core/ports/driving"
	"github.com/custodia-labs/refchat/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// EnvPrefix prefixes environment overrides: llm.base_url is read from REFCHAT_LLM_BASE_URL.
const EnvPrefix = "REFCHAT_"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyZoteroBaseURL        = "zotero.base_url"
	keyZoteroStorageRoot    = "zotero.storage_root"
	keyLLMProvider          = "llm.provider"
	keyLLMBaseURL           = "llm.base_url"
	keyLLMModel             = "llm.model"
	keyLLMAPIKey            = "llm.api_key"
	keyLLMTimeout           = "llm.timeout_seconds"
	keyLLMTemperature       = "llm.temperature"
	keyLLMTopP              = "llm.top_p"
	keyLLMPresencePenalty   = "llm.presence_penalty"
	keyLLMFrequencyPenalty  = "llm.frequency_penalty"
	keyEmbedProvider        = "embedding.provider"
	keyEmbedBaseURL         = "embedding.base_url"
	keyEmbedModel           = "embedding.model"
	keyEmbedAPIKey          = "embedding.api_key"
	keyEmbedRate            = "embedding.requests_per_second"
	keyIndexDir             = "index.dir"
	keyIndexConcurrency     = "index.concurrency"
	keyIndexVerifySource    = "index.verify_source"
	keyChunkingStrategy     = "chunking.strategy"
	keyChunkingBufferSize   = "chunking.buffer_size"
	keyChunkingPercentile   = "chunking.breakpoint_percentile"
	keyChunkingSize         = "chunking.chunk_size"
	keyChunkingOverlap      = "chunking.chunk_overlap"
	keyQueryTopK            = "query.top_k"
	keyQueryWordCount       = "query.word_count"
	keyQueryMode            = "query.synthesis_mode"
	keyQueryMaxPromptChars  = "query.max_prompt_chars"
	keyGlossaryCount        = "glossary.count"
	keyGlossaryWordsPerDefn = "glossary.words_per_definition"
)

// setting binds a config key to a field of domain.AppSettings.
// ref returns a pointer to the field: *string, *int, *float64, *bool,
// *time.Duration (stored as seconds), *domain.AIProvider or *domain.SynthesisMode.
type setting struct {
	key    string
	ref    func(*domain.AppSettings) any
	secret bool
}

var settingsTable = []setting{
	{key: keyZoteroBaseURL, ref: func(s *domain.AppSettings) any { return &s.Zotero.BaseURL }},
	{key: keyZoteroStorageRoot, ref: func(s *domain.AppSettings) any { return &s.Zotero.StorageRoot }},
	{key: keyLLMProvider, ref: func(s *domain.AppSettings) any { return &s.LLM.Provider }},
	{key: keyLLMBaseURL, ref: func(s *domain.AppSettings) any { return &s.LLM.BaseURL }},
	{key: keyLLMModel, ref: func(s *domain.AppSettings) any { return &s.LLM.Model }},
	{key: keyLLMAPIKey, ref: func(s *domain.AppSettings) any { return &s.LLM.APIKey }, secret: true},
	{key: keyLLMTimeout, ref: func(s *domain.AppSettings) any { return &s.LLM.Timeout }},
	{key: keyLLMTemperature, ref: func(s *domain.AppSettings) any { return &s.LLM.Sampling.Temperature }},
	{key: keyLLMTopP, ref: func(s *domain.AppSettings) any { return &s.LLM.Sampling.TopP }},
	{key: keyLLMPresencePenalty, ref: func(s *domain.AppSettings) any { return &s.LLM.Sampling.PresencePenalty }},
	{key: keyLLMFrequencyPenalty, ref: func(s *domain.AppSettings) any { return &s.LLM.Sampling.FrequencyPenalty }},
	{key: keyEmbedProvider, ref: func(s *domain.AppSettings) any { return &s.Embedding.Provider }},
	{key: keyEmbedBaseURL, ref: func(s *domain.AppSettings) any { return &s.Embedding.BaseURL }},
	{key: keyEmbedModel, ref: func(s *domain.AppSettings) any { return &s.Embedding.Model }},
	{key: keyEmbedAPIKey, ref: func(s *domain.AppSettings) any { return &s.Embedding.APIKey }, secret: true},
	{key: keyEmbedRate, ref: func(s *domain.AppSettings) any { return &s.Embedding.RequestsPerSecond }},
	{key: keyIndexDir, ref: func(s *domain.AppSettings) any { return &s.Index.Dir }},
	{key: keyIndexConcurrency, ref: func(s *domain.AppSettings) any { return &s.Index.Concurrency }},
	{key: keyIndexVerifySource, ref: func(s *domain.AppSettings) any { return &s.Index.VerifySource }},
	{key: keyChunkingStrategy, ref: func(s *domain.AppSettings) any { return &s.Chunking.Strategy }},
	{key: keyChunkingBufferSize, ref: func(s *domain.AppSettings) any { return &s.Chunking.BufferSize }},
	{key: keyChunkingPercentile, ref: func(s *domain.AppSettings) any { return &s.Chunking.BreakpointPercentile }},
	{key: keyChunkingSize, ref: func(s *domain.AppSettings) any { return &s.Chunking.ChunkSize }},
	{key: keyChunkingOverlap, ref: func(s *domain.AppSettings) any { return &s.Chunking.ChunkOverlap }},
	{key: keyQueryTopK, ref: func(s *domain.AppSettings) any { return &s.Query.TopK }},
	{key: keyQueryWordCount, ref: func(s *domain.AppSettings) any { return &s.Query.WordCount }},
	{key: keyQueryMode, ref: func(s *domain.AppSettings) any { return &s.Query.Mode }},
	{key: keyQueryMaxPromptChars, ref: func(s *domain.AppSettings) any { return &s.Query.MaxPromptChars }},
	{key: keyGlossaryCount, ref: func(s *domain.AppSettings) any { return &s.Glossary.Count }},
	{key: keyGlossaryWordsPerDefn, ref: func(s *domain.AppSettings) any { return &s.Glossary.WordsPerDefinition }},
}

// SettingsService manages application settings.
// Values resolve in order: environment override, config file, default.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		lookupEnv:   os.LookupEnv,
	}
}

// SetValidator sets the provider validator used by Check.
func (s *SettingsService) SetValidator(v driven.AIConfigValidator) {
	s.validator = v
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Get retrieves current application settings.
// Unparsable stored values are logged and replaced by defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()

	for _, f := range settingsTable {
		raw, source, ok := s.lookup(f.key)
		if !ok {
			continue
		}
		if err := assign(f.ref(&settings), raw); err != nil {
			logger.Warn("setting %s from %s: %v, using default", f.key, source, err)
		}
	}

	return &settings, nil
}

// lookup returns the raw value of key and where it came from.
func (s *SettingsService) lookup(key string) (string, string, bool) {
	if s.lookupEnv != nil {
		if v, ok := s.lookupEnv(EnvKey(key)); ok && v != "" {
			return v, EnvKey(key), true
		}
	}
	if v, ok := s.configStore.Get(key); ok {
		return fmt.Sprint(v), s.configStore.Path(), true
	}
	return "", "", false
}

// Save persists application settings.
// Empty secrets are not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	for _, f := range settingsTable {
		val := storedValue(f.ref(settings))
		if f.secret && val == "" {
			continue
		}
		if err := s.configStore.Set(f.key, val); err != nil {
			return fmt.Errorf("save %s: %w", f.key, err)
		}
	}
	return nil
}

// Set updates one setting from its string form.
func (s *SettingsService) Set(key, value string) error {
	f, ok := findSetting(key)
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	ref := f.ref(settings)
	if err := assign(ref, value); err != nil {
		return fmt.Errorf("setting %s: %w: %w", key, domain.ErrInvalidInput, err)
	}

	if err := s.configStore.Set(key, storedValue(ref)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every settable key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, f := range settingsTable {
		keys[i] = f.key
	}
	return keys
}

// Display returns key and value pairs for printing, with secrets masked.
func (s *SettingsService) Display() ([][2]string, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}
	out := make([][2]string, len(settingsTable))
	for i, f := range settingsTable {
		val := fmt.Sprint(storedValue(f.ref(settings)))
		if f.secret && val != "" {
			val = "********"
		}
		out[i] = [2]string{f.key, val}
	}
	return out, nil
}

// Validate checks the current settings.
// Unknown keys in the config file are logged and otherwise ignored.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	for _, key := range s.configStore.Keys() {
		if _, ok := findSetting(key); !ok {
			logger.Warn("unknown setting %s in %s", key, s.configStore.Path())
		}
	}

	switch {
	case !settings.LLM.IsConfigured():
		return fmt.Errorf("llm provider %q is not configured: %w", settings.LLM.Provider, domain.ErrInvalidInput)
	case !settings.Embedding.IsConfigured():
		return fmt.Errorf("embedding provider %q is not configured: %w", settings.Embedding.Provider, domain.ErrInvalidInput)
	case !settings.Query.Mode.IsValid():
		return fmt.Errorf("invalid synthesis mode %q: %w", settings.Query.Mode, domain.ErrInvalidInput)
	case settings.Query.TopK <= 0:
		return fmt.Errorf("%s must be positive: %w", keyQueryTopK, domain.ErrInvalidInput)
	case settings.Chunking.BreakpointPercentile < 0 || settings.Chunking.BreakpointPercentile > 100:
		return fmt.Errorf("%s must be within 0-100: %w", keyChunkingPercentile, domain.ErrInvalidInput)
	case settings.Chunking.Strategy != domain.ChunkingSemantic && settings.Chunking.Strategy != domain.ChunkingFixed:
		return fmt.Errorf("unknown chunking strategy %q: %w", settings.Chunking.Strategy, domain.ErrInvalidInput)
	}
	return nil
}

// Check pings the configured LLM and embedding providers.
func (s *SettingsService) Check(ctx context.Context) ([]driving.ProviderCheck, error) {
	if s.validator == nil {
		return nil, fmt.Errorf("provider validator not configured: %w", domain.ErrInvalidInput)
	}
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	checks := []driving.ProviderCheck{
		{
			Role:     "llm",
			Provider: settings.LLM.Provider,
			BaseURL:  settings.LLM.BaseURL,
			Err:      s.validator.ValidateLLM(ctx, settings.LLM),
		},
		{
			Role:     "embedding",
			Provider: settings.Embedding.Provider,
			BaseURL:  settings.Embedding.BaseURL,
			Err:      s.validator.ValidateEmbedding(ctx, settings.Embedding),
		},
	}
	for _, c := range checks {
		if !c.OK() {
			logger.Warn("%s provider %s at %s: %v", c.Role, c.Provider, c.BaseURL, c.Err)
		}
	}
	return checks, nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func findSetting(key string) (setting, bool) {
	for _, f := range settingsTable {
		if f.key == key {
			return f, true
		}
	}
	return setting{}, false
}

// assign parses raw into the field ref points to.
func assign(ref any, raw string) error {
	raw = strings.TrimSpace(raw)
	switch p := ref.(type) {
	case *string:
		*p = raw
	case *int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("not an integer: %q", raw)
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", raw)
		}
		*p = v
	case *bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", raw)
		}
		*p = v
	case *time.Duration:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("not a positive number of seconds: %q", raw)
		}
		*p = time.Duration(v * float64(time.Second))
	case *domain.AIProvider:
		v := domain.AIProvider(strings.ToLower(raw))
		if !v.IsValid() {
			return fmt.Errorf("unknown provider: %q", raw)
		}
		*p = v
	case *domain.SynthesisMode:
		v, ok := domain.ParseSynthesisMode(raw)
		if !ok {
			return fmt.Errorf("unknown synthesis mode: %q", raw)
		}
		*p = v
	default:
		return fmt.Errorf("unsupported setting type %T", ref)
	}
	return nil
}

// storedValue converts a field to the value written to the config store.
func storedValue(ref any) any {
	switch p := ref.(type) {
	case *string:
		return *p
	case *int:
		return *p
	case *float64:
		return *p
	case *bool:
		return *p
	case *time.Duration:
		return int(p.Seconds())
	case *domain.AIProvider:
		return p.String()
	case *domain.SynthesisMode:
		return p.String()
	default:
		return nil
	}
}
