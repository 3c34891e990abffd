package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ErrValidation marks fatal configuration errors detected before any
// crawling begins
var ErrValidation = errors.New("configuration validation error")

// Validate checks Config fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *Config) Validate() (warnings []string, err error) {
	// BaseURL is the only required field
	if c.BaseURL == "" {
		return warnings, fmt.Errorf("%w: base URL is required", ErrValidation)
	}
	parsed, parseErr := url.ParseRequestURI(c.BaseURL)
	if parseErr != nil {
		return warnings, fmt.Errorf("%w: invalid base URL '%s': %w", ErrValidation, c.BaseURL, parseErr)
	}
	if parsed.Hostname() == "" {
		return warnings, fmt.Errorf("%w: base URL '%s' has no host", ErrValidation, c.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return warnings, fmt.Errorf("%w: base URL scheme must be http or https, got '%s'", ErrValidation, parsed.Scheme)
	}

	// MaxDepth (0 is valid: check only the seed)
	if c.MaxDepth < 0 {
		warnings = append(warnings, "max_depth cannot be negative, defaulting to 5")
		c.MaxDepth = 5
	}

	// Concurrency
	if c.Concurrency <= 0 {
		warnings = append(warnings, "concurrency should be > 0, defaulting to 10")
		c.Concurrency = 10
	}

	// RequestTimeout
	if c.RequestTimeout <= 0 {
		warnings = append(warnings, "request_timeout should be > 0, defaulting to 10s")
		c.RequestTimeout = 10 * time.Second
	}

	// UserAgent
	if c.UserAgent == "" {
		c.UserAgent = "linkaudit/1.0 (+broken-link checker)"
	}

	// MaxRetries (0 = single attempt, matching the default behavior)
	if c.MaxRetries < 0 {
		warnings = append(warnings, "max_retries cannot be negative, setting to 0")
		c.MaxRetries = 0
	}

	// Retry delays (only meaningful when retries enabled)
	if c.MaxRetries > 0 {
		if c.InitialRetryDelay <= 0 {
			c.InitialRetryDelay = 1 * time.Second
		}
		if c.MaxRetryDelay <= 0 {
			c.MaxRetryDelay = 30 * time.Second
		}
		if c.InitialRetryDelay > c.MaxRetryDelay {
			warnings = append(warnings, fmt.Sprintf(
				"initial_retry_delay (%v) > max_retry_delay (%v), using max_retry_delay for initial",
				c.InitialRetryDelay, c.MaxRetryDelay))
			c.InitialRetryDelay = c.MaxRetryDelay
		}
	}

	// MaxPageSizeBytes
	if c.MaxPageSizeBytes <= 0 {
		c.MaxPageSizeBytes = 10 << 20 // 10 MiB
	}

	// ProgressInterval (0 disables the periodic progress log)
	if c.ProgressInterval < 0 {
		warnings = append(warnings, "progress_interval cannot be negative, disabling progress reporting")
		c.ProgressInterval = 0
	}

	c.HTTPClientSettings.applyDefaults()

	return warnings, nil
}

// applyDefaults fills zero-valued HTTP client settings
func (h *HTTPClientConfig) applyDefaults() {
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 10
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}
