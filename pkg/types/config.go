// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "theme-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// WithDefaults fills zero values.
func (c HTTPConfig) WithDefaults() HTTPConfig {
	if c.Timeout <= 0 {
		c.Timeout = 2 * time.Minute
	}
	if c.UserAgent == "" {
		c.UserAgent = "theme-engine/0.1"
	}
	return c
}

// AIProvider identifies the generative AI backend.
type AIProvider string

const (
	ProviderOpenAI    AIProvider = "openai"
	ProviderAnthropic AIProvider = "anthropic"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	HTTPConfig `yaml:",inline"`

	// Provider selects the backend: openai (default) or anthropic.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "gpt-4o").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RequestsPerMinute caps outgoing calls (default 60).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute"`
}

// WithDefaults fills zero values.
func (c AIConfig) WithDefaults() AIConfig {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		switch c.Provider {
		case ProviderAnthropic:
			c.Model = "claude-sonnet-4-5-20250929"
		default:
			c.Model = "gpt-4o"
		}
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = 60
	}
	c.HTTPConfig = c.HTTPConfig.WithDefaults()
	return c
}

// ExtractionConfig holds settings for the extraction stage.
type ExtractionConfig struct {
	// InputDir holds the WXR exports (*.xml) for batch extraction.
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// ProcessingDir receives extracted/ YAML results.
	ProcessingDir string `json:"processing_dir" yaml:"processing_dir"`

	// FilterDuplicates keeps one page per base title before extraction.
	FilterDuplicates bool `json:"filter_duplicates" yaml:"filter_duplicates"`
}

// WithDefaults fills zero values.
func (c ExtractionConfig) WithDefaults() ExtractionConfig {
	if c.InputDir == "" {
		c.InputDir = "input"
	}
	if c.ProcessingDir == "" {
		c.ProcessingDir = "processing"
	}
	return c
}

// TransformationConfig holds settings for the transformation stage.
type TransformationConfig struct {
	AIConfig `yaml:",inline"`

	// BatchSize is the number of texts sent per AI call (default 5).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxColors caps the distinct colors sent for palette rewriting (default 10).
	MaxColors int `json:"max_colors" yaml:"max_colors"`

	// Concurrency bounds parallel batch calls (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// DisableCache bypasses the content-addressed result cache.
	DisableCache bool `json:"disable_cache" yaml:"disable_cache"`
}

// WithDefaults fills zero values.
func (c TransformationConfig) WithDefaults() TransformationConfig {
	c.AIConfig = c.AIConfig.WithDefaults()
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.MaxColors <= 0 {
		c.MaxColors = 10
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	return c
}

// ReplacementConfig holds settings for the replacement stage.
type ReplacementConfig struct {
	// OutputDir receives transformed WXR exports (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// WithDefaults fills zero values.
func (c ReplacementConfig) WithDefaults() ReplacementConfig {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	return c
}

// GenerationConfig holds settings for the one-page and multi-page generators.
type GenerationConfig struct {
	// OutputDir receives generated WXR files (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// SiteTitle is the channel title of generated exports.
	SiteTitle string `json:"site_title" yaml:"site_title"`

	// BaseURL is the base site URL written into generated exports.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Seed makes section and page selection reproducible when non-zero.
	Seed int64 `json:"seed" yaml:"seed"`
}

// WithDefaults fills zero values.
func (c GenerationConfig) WithDefaults() GenerationConfig {
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.SiteTitle == "" {
		c.SiteTitle = "Generated Site"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://example.com"
	}
	return c
}

// StoreDriver selects the persistence backend.
type StoreDriver string

const (
	DriverSQLite   StoreDriver = "sqlite"
	DriverPostgres StoreDriver = "postgres"
)

// StoreConfig holds settings for theme persistence.
type StoreConfig struct {
	// Driver is sqlite (default) or postgres.
	Driver StoreDriver `json:"driver" yaml:"driver"`

	// Path is the SQLite database file (default processing/index/themes.db).
	Path string `json:"path" yaml:"path"`

	// DSN is the Postgres connection string (Supabase).
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	// Migrate applies embedded migrations on open (postgres only).
	Migrate bool `json:"migrate" yaml:"migrate"`
}

// WithDefaults fills zero values.
func (c StoreConfig) WithDefaults() StoreConfig {
	if c.Driver == "" {
		c.Driver = DriverSQLite
	}
	if c.Path == "" {
		c.Path = "processing/index/themes.db"
	}
	return c
}

// ImageConfig holds settings for stock photo substitution.
type ImageConfig struct {
	HTTPConfig `yaml:",inline"`

	// AccessKey is the Unsplash access key.
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`

	// BaseURL overrides the Unsplash API endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// WithDefaults fills zero values.
func (c ImageConfig) WithDefaults() ImageConfig {
	c.HTTPConfig = c.HTTPConfig.WithDefaults()
	if c.BaseURL == "" {
		c.BaseURL = "https://api.unsplash.com"
	}
	return c
}

// JobsConfig holds settings for the background job manager.
type JobsConfig struct {
	// Workers is the number of concurrent jobs (default 2).
	Workers int `json:"workers" yaml:"workers"`

	// QueueSize bounds pending jobs (default 64).
	QueueSize int `json:"queue_size" yaml:"queue_size"`
}

// WithDefaults fills zero values.
func (c JobsConfig) WithDefaults() JobsConfig {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	return c
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Extraction     ExtractionConfig     `json:"extraction" yaml:"extraction"`
	Transformation TransformationConfig `json:"transformation" yaml:"transformation"`
	Replacement    ReplacementConfig    `json:"replacement" yaml:"replacement"`
	Generation     GenerationConfig     `json:"generation" yaml:"generation"`
	Store          StoreConfig          `json:"store" yaml:"store"`
	Images         ImageConfig          `json:"images" yaml:"images"`
	Jobs           JobsConfig           `json:"jobs" yaml:"jobs"`
}
