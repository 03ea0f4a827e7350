// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout bounds every request made by the stage.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// LoggingConfig controls the console logger and the append-only execution log.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error"`

	// File is the execution log path. Empty disables file logging.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	// Console enables the console writer.
	Console bool `json:"console" yaml:"console" mapstructure:"console"`
}

// CompletionBackend identifies the text completion transport.
type CompletionBackend string

const (
	BackendOllama    CompletionBackend = "ollama"
	BackendAnthropic CompletionBackend = "anthropic"
	BackendGemini    CompletionBackend = "gemini"
	BackendOpenAI    CompletionBackend = "openai"
)

// CompletionConfig holds settings for the generative model used by the
// rewriter, the extractor, and the synthesizer.
type CompletionConfig struct {
	// Backend selects the transport: ollama, anthropic, gemini, or openai.
	Backend CompletionBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=ollama anthropic gemini openai"`

	// Model is the model identifier passed to the backend.
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// BaseURL overrides the backend endpoint (Ollama host, proxies, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url" validate:"omitempty,url"`

	// APIKey authenticates hosted backends. Falls back to .secrets/.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single completion call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// MaxRetries is the number of retry attempts for failed calls.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`

	// MaxTokens caps the response length for backends that require it.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
}

// RetrievalConfig holds settings for the retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Kinds lists the retrieval kinds in priority order.
	Kinds []string `json:"kinds" yaml:"kinds" mapstructure:"kinds" validate:"min=1,dive,oneof=web news encyclopedia"`

	// Limits maps a kind to the number of records kept for it.
	Limits map[string]int `json:"limits" yaml:"limits" mapstructure:"limits" validate:"dive,gte=0"`

	// Margin is added to every limit when querying providers to absorb
	// malformed or duplicate entries.
	Margin int `json:"margin" yaml:"margin" mapstructure:"margin" validate:"gte=0"`

	// WebProvider selects the web search provider: duckduckgo or brave.
	WebProvider string `json:"web_provider" yaml:"web_provider" mapstructure:"web_provider" validate:"oneof=duckduckgo brave"`

	// BraveAPIKey enables the Brave provider (web and news). Falls back to .secrets/.
	BraveAPIKey string `json:"brave_api_key,omitempty" yaml:"brave_api_key,omitempty" mapstructure:"brave_api_key"`

	// EncyclopediaDomain scopes the constrained web search that resolves
	// encyclopedia page titles (e.g. "en.wikipedia.org").
	EncyclopediaDomain string `json:"encyclopedia_domain" yaml:"encyclopedia_domain" mapstructure:"encyclopedia_domain" validate:"required,hostname"`

	// RequestsPerSecond limits each provider's request rate. Zero disables limiting.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
}

// LimitFor returns the configured record limit for kind.
func (c RetrievalConfig) LimitFor(kind Kind) int {
	return c.Limits[string(kind)]
}

// FetcherType identifies the document fetcher implementation.
type FetcherType string

const (
	FetcherChrome FetcherType = "chrome"
	FetcherHTTP   FetcherType = "http"
)

// AcquisitionConfig holds settings for the document acquisition stage.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Fetcher selects chrome (headless browser) or http (plain GET).
	Fetcher FetcherType `json:"fetcher" yaml:"fetcher" mapstructure:"fetcher" validate:"oneof=chrome http"`

	// Concurrency is the number of simultaneous fetches.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency" validate:"min=1,max=32"`

	// SettleMin and SettleMax bound the randomized delay after page load.
	SettleMin time.Duration `json:"settle_min" yaml:"settle_min" mapstructure:"settle_min" validate:"gte=0"`
	SettleMax time.Duration `json:"settle_max" yaml:"settle_max" mapstructure:"settle_max" validate:"gtefield=SettleMin"`

	// Headless runs Chrome without a window.
	Headless bool `json:"headless" yaml:"headless" mapstructure:"headless"`

	// MaxBodyBytes caps the HTML read by the http fetcher.
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=0"`

	// CachePath enables the SQLite page-text cache when non-empty.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty" mapstructure:"cache_path"`

	// CacheTTL is how long cached page text stays fresh.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl" validate:"gte=0"`
}

// ExtractionConfig holds settings for the per-document extraction stage.
type ExtractionConfig struct {
	// Enabled runs the extractor; when false, retrieval snippets are used
	// as extracts and no pages are fetched.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MaxInputChars truncates document bodies before extraction. Zero
	// disables truncation.
	MaxInputChars int `json:"max_input_chars" yaml:"max_input_chars" mapstructure:"max_input_chars" validate:"gte=0"`
}

// SynthesisConfig holds settings for the answer synthesis stage.
type SynthesisConfig struct {
	// SkipWhenEmpty returns a fixed answer instead of calling the model when
	// no extracts were produced.
	SkipWhenEmpty bool `json:"skip_when_empty" yaml:"skip_when_empty" mapstructure:"skip_when_empty"`

	// NormalizeCitations rewrites malformed citation markers in the answer.
	NormalizeCitations bool `json:"normalize_citations" yaml:"normalize_citations" mapstructure:"normalize_citations"`
}

// ServerConfig holds settings for the HTTP front end.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`

	// RunTimeout bounds one pipeline run started by a request.
	RunTimeout time.Duration `json:"run_timeout" yaml:"run_timeout" mapstructure:"run_timeout" validate:"gte=0"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	Logging     LoggingConfig     `json:"logging" yaml:"logging" mapstructure:"logging"`
	Completion  CompletionConfig  `json:"completion" yaml:"completion" mapstructure:"completion"`
	Retrieval   RetrievalConfig   `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Extraction  ExtractionConfig  `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Synthesis   SynthesisConfig   `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the configuration used when no file or environment
// override is present.
func DefaultConfig() Config {
	return Config{
		Logging: LoggingConfig{
			Level:   "info",
			File:    "answer-engine.log",
			Console: true,
		},
		Completion: CompletionConfig{
			Backend:    BackendOllama,
			Model:      "llama3.1",
			BaseURL:    "http://localhost:11434",
			Timeout:    2 * time.Minute,
			MaxRetries: 2,
			MaxTokens:  2048,
		},
		Retrieval: RetrievalConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   15 * time.Second,
				UserAgent: defaultUserAgent,
			},
			Kinds: []string{string(KindWeb), string(KindNews), string(KindEncyclopedia)},
			Limits: map[string]int{
				string(KindWeb):          3,
				string(KindNews):         2,
				string(KindEncyclopedia): 1,
			},
			Margin:             2,
			WebProvider:        "duckduckgo",
			EncyclopediaDomain: "en.wikipedia.org",
			RequestsPerSecond:  1,
		},
		Acquisition: AcquisitionConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   45 * time.Second,
				UserAgent: defaultUserAgent,
			},
			Fetcher:      FetcherChrome,
			Concurrency:  5,
			SettleMin:    500 * time.Millisecond,
			SettleMax:    time.Second,
			Headless:     true,
			MaxBodyBytes: 2 << 20,
			CacheTTL:     6 * time.Hour,
		},
		Extraction: ExtractionConfig{
			Enabled: true,
		},
		Synthesis: SynthesisConfig{
			NormalizeCitations: true,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			RunTimeout: 10 * time.Minute,
		},
	}
}
