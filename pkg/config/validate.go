package config

import (
	"fmt"
	"time"
)

// Defaults applied by Validate when fields are missing or invalid.
const (
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTargetCount       = 100
	DefaultMaxPagesPerSource = 10
	DefaultDelayPerHost      = 2 * time.Second
	DefaultCatalogDir        = "./catalog_state"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	if c.UserAgent == "" {
		warnings = append(warnings, "user_agent is empty, using the built-in default")
		c.UserAgent = DefaultUserAgent
	}

	if len(c.Sources) == 0 {
		return warnings, fmt.Errorf("sources must list at least one source key")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, key := range c.Sources {
		if key == "" {
			return warnings, fmt.Errorf("sources contains an empty source key")
		}
		if seen[key] {
			return warnings, fmt.Errorf("sources lists %q more than once", key)
		}
		seen[key] = true
	}

	if c.TargetCount < 0 {
		warnings = append(warnings, fmt.Sprintf("target_count cannot be negative, defaulting to %d", DefaultTargetCount))
		c.TargetCount = DefaultTargetCount
	}
	if c.TargetCount == 0 {
		c.TargetCount = DefaultTargetCount
	}

	if c.PageCount < 0 {
		warnings = append(warnings, "page_count cannot be negative, ignoring it")
		c.PageCount = 0
	}

	if c.MaxPagesPerSource <= 0 {
		c.MaxPagesPerSource = DefaultMaxPagesPerSource
	}
	if c.PageCount > c.MaxPagesPerSource {
		warnings = append(warnings, fmt.Sprintf(
			"page_count (%d) exceeds max_pages_per_source (%d), capping",
			c.PageCount, c.MaxPagesPerSource))
		c.PageCount = c.MaxPagesPerSource
	}

	if c.DelayPerHost < 0 {
		warnings = append(warnings, "delay_per_host cannot be negative, using the default")
		c.DelayPerHost = DefaultDelayPerHost
	}
	if c.DelayPerHost == 0 {
		c.DelayPerHost = DefaultDelayPerHost
	}

	if c.CatalogDir == "" {
		warnings = append(warnings, fmt.Sprintf("catalog_dir is empty, defaulting to '%s'", DefaultCatalogDir))
		c.CatalogDir = DefaultCatalogDir
	}

	c.HTTPClientSettings.applyDefaults()

	return warnings, nil
}

// applyDefaults fills zero-valued HTTP client settings.
func (h *HTTPClientConfig) applyDefaults() {
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 4
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
