package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full configuration for one crawl run. The CLI flags map
// onto these fields; an optional YAML file can pre-populate them (flags win)
type Config struct {
	BaseURL            string        `yaml:"base_url"`
	MaxDepth           int           `yaml:"max_depth"`
	Concurrency        int           `yaml:"concurrency"`
	RequestTimeout     time.Duration `yaml:"request_timeout,omitempty"`
	UserAgent          string        `yaml:"user_agent,omitempty"`
	MaxRetries         int           `yaml:"max_retries,omitempty"`
	InitialRetryDelay  time.Duration `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay      time.Duration `yaml:"max_retry_delay,omitempty"`
	MaxPageSizeBytes   int64         `yaml:"max_page_size_bytes,omitempty"`
	ProgressInterval   time.Duration `yaml:"progress_interval,omitempty"`
	ExportPath         string        `yaml:"export_path,omitempty"`
	RealtimeExportPath string        `yaml:"realtime_export_path,omitempty"`

	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// Default returns a Config carrying the documented CLI defaults
func Default() *Config {
	return &Config{
		MaxDepth:         5,
		Concurrency:      10,
		RequestTimeout:   10 * time.Second,
		ProgressInterval: 30 * time.Second,
	}
}

// Load reads and parses a YAML config file over the provided Config
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
