package config

import "time"

// AppConfig holds the global application configuration
type AppConfig struct {
	UserAgent          string           `yaml:"user_agent,omitempty"`
	Sources            []string         `yaml:"sources"`                        // Ordered source keys to harvest
	TargetCount        int              `yaml:"target_count,omitempty"`         // Stop once this many records accumulated
	PageCount          int              `yaml:"page_count,omitempty"`           // Explicit pages per source (0 = until target/cap)
	MaxPagesPerSource  int              `yaml:"max_pages_per_source,omitempty"` // Hard cap regardless of target
	DelayPerHost       time.Duration    `yaml:"delay_per_host,omitempty"`       // Politeness delay between requests to one host
	FetchContent       bool             `yaml:"fetch_content,omitempty"`        // Fetch and clean full book text after listing harvest
	Parallel           bool             `yaml:"parallel,omitempty"`             // Harvest independent sources concurrently
	CatalogDir         string           `yaml:"catalog_dir"`                    // Badger catalog location
	HTTPClientSettings HTTPClientConfig `yaml:"http_client_settings,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // Tri-state: nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}
