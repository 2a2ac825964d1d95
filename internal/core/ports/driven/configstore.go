package driven

// ConfigStore persists flat, dot-separated configuration keys ("llm.model").
// Values keep the type the backing format decoded them as; callers convert.
type ConfigStore interface {
	// Get returns the stored value of key and whether it exists.
	Get(key string) (any, bool)

	// Set stores value under key and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load replaces the in-memory configuration with the persisted one.
	// A missing file is an empty configuration.
	Load() error

	// Keys returns every stored key, sorted.
	Keys() []string

	// Path names where the configuration lives, for messages.
	Path() string
}
