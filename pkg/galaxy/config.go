// Package galaxy provides a Go client for the Galaxy workflow server
// REST API, covering the resources IslandCompare needs: histories,
// datasets, dataset collections, workflows, invocations, jobs and
// built-in reference genomes.
package galaxy

import "time"

// DefaultBaseURL is the public IslandCompare Galaxy instance.
const DefaultBaseURL = "https://galaxy.islandcompare.ca/"

// Default client settings.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 5
	DefaultRetryDelay = 1 * time.Second
)

// Config holds all configuration for the Galaxy API client.
type Config struct {
	// BaseURL is the root URL of the Galaxy instance.
	BaseURL string

	// APIKey is the Galaxy API key, sent as the x-api-key header.
	APIKey string

	// Timeout bounds each API request. It does not apply to dataset
	// downloads, which are bounded only by the caller's context.
	Timeout time.Duration

	// MaxRetries is the retry budget for transient transport failures.
	MaxRetries int

	// RetryDelay is the fixed delay between retries.
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with the production URL and default settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// WithBaseURL returns a copy of the config pointing at the given instance.
func (c Config) WithBaseURL(url string) Config {
	c.BaseURL = url
	return c
}

// WithAPIKey returns a copy of the config with the specified API key.
func (c Config) WithAPIKey(key string) Config {
	c.APIKey = key
	return c
}

// WithRetries returns a copy of the config with the specified retry settings.
func (c Config) WithRetries(maxRetries int, retryDelay time.Duration) Config {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
	return c
}
