package driving

import (
	"context"

	"github.com/custodia-labs/refchat/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates one setting from its string form.
	// Returns domain.ErrInvalidInput for unknown keys or unparsable values.
	Set(key, value string) error

	// Keys returns every settable key in display order.
	Keys() []string

	// Display returns key and value pairs in display order with secrets masked.
	Display() ([][2]string, error)

	// Validate checks the current settings.
	Validate() error

	// Check pings the configured LLM and embedding providers.
	// It returns one result per provider, in that order.
	Check(ctx context.Context) ([]ProviderCheck, error)

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}

// ProviderCheck is the outcome of pinging one configured provider.
type ProviderCheck struct {
	// Role is "llm" or "embedding".
	Role string `json:"role"`

	// Provider is the configured provider.
	Provider domain.AIProvider `json:"provider"`

	// BaseURL is the endpoint that was contacted.
	BaseURL string `json:"base_url"`

	// Err is the failure, or nil when the provider answered.
	Err error `json:"-"`
}

// OK reports whether the provider answered.
func (c ProviderCheck) OK() bool {
	return c.Err == nil
}
