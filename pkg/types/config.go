package types

import "time"

// HTTPConfig holds shared HTTP settings used by the fetcher.
type HTTPConfig struct {
	// Timeout bounds each HTTP request (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "resolution-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds the retry and pacing policy of the evidence fetcher.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRetries is the number of retries of one endpoint on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryBaseDelay is the first backoff interval; it doubles each retry.
	// Zero means httputil.RetryBaseDelay (1.5s).
	RetryBaseDelay time.Duration `json:"retry_base_delay" yaml:"retry_base_delay"`

	// RequestsPerSecond paces outbound requests (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxPages caps pagination of a single segment (default 500).
	MaxPages int `json:"max_pages" yaml:"max_pages"`
}

// Defaults returns cfg with zero fields replaced by the documented defaults.
func (cfg FetchConfig) Defaults() FetchConfig {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "resolution-engine/0.1"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 500
	}
	return cfg
}

// EngineConfig groups the settings the CLI loads through viper.
type EngineConfig struct {
	Fetch FetchConfig `json:"fetch" yaml:"fetch"`

	// LogLevel is a zerolog level name (default "info").
	LogLevel string `json:"log_level" yaml:"log_level"`

	// SecretsDir is a directory of one-file-per-secret credentials (default ".secrets/").
	SecretsDir string `json:"secrets_dir" yaml:"secrets_dir"`

	// EnvFile is an optional dotenv file merged under the process environment (default ".env").
	EnvFile string `json:"env_file" yaml:"env_file"`
}
