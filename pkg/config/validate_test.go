package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() AppConfig {
	return AppConfig{
		Sources:    []string{"litmir", "authortoday"},
		CatalogDir: "/tmp/catalog",
	}
}

func TestValidate_AppliesDefaults(t *testing.T) {
	cfg := validConfig()

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.NotEmpty(t, warnings) // at least the user_agent warning

	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, DefaultTargetCount, cfg.TargetCount)
	assert.Equal(t, DefaultMaxPagesPerSource, cfg.MaxPagesPerSource)
	assert.Equal(t, DefaultDelayPerHost, cfg.DelayPerHost)
	assert.Equal(t, 30*time.Second, cfg.HTTPClientSettings.Timeout)
}

func TestValidate_SourcesRequired(t *testing.T) {
	cfg := AppConfig{CatalogDir: "/tmp/catalog"}
	_, err := cfg.Validate()
	require.Error(t, err)
}

func TestValidate_RejectsDuplicateSources(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = []string{"litmir", "litmir"}
	_, err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than once")
}

func TestValidate_RejectsEmptySourceKey(t *testing.T) {
	cfg := validConfig()
	cfg.Sources = []string{"litmir", ""}
	_, err := cfg.Validate()
	require.Error(t, err)
}

func TestValidate_CapsPageCount(t *testing.T) {
	cfg := validConfig()
	cfg.PageCount = 50
	cfg.MaxPagesPerSource = 10

	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PageCount)
	assert.NotEmpty(t, warnings)
}

func TestValidate_NegativeValues(t *testing.T) {
	cfg := validConfig()
	cfg.TargetCount = -5
	cfg.PageCount = -1
	cfg.DelayPerHost = -time.Second

	_, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, DefaultTargetCount, cfg.TargetCount)
	assert.Equal(t, 0, cfg.PageCount)
	assert.Equal(t, DefaultDelayPerHost, cfg.DelayPerHost)
}

func TestValidate_EmptyCatalogDirDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.CatalogDir = ""

	_, err := cfg.Validate()
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalogDir, cfg.CatalogDir)
}

func TestAppConfig_YAMLUnmarshal(t *testing.T) {
	raw := `
user_agent: "test-agent"
sources: [litmir, loveread]
target_count: 40
max_pages_per_source: 5
delay_per_host: 1500ms
fetch_content: true
catalog_dir: ./state
http_client_settings:
  timeout: 20s
  max_idle_conns_per_host: 8
`
	var cfg AppConfig
	require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))

	assert.Equal(t, "test-agent", cfg.UserAgent)
	assert.Equal(t, []string{"litmir", "loveread"}, cfg.Sources)
	assert.Equal(t, 40, cfg.TargetCount)
	assert.Equal(t, 5, cfg.MaxPagesPerSource)
	assert.Equal(t, 1500*time.Millisecond, cfg.DelayPerHost)
	assert.True(t, cfg.FetchContent)
	assert.Equal(t, 20*time.Second, cfg.HTTPClientSettings.Timeout)
	assert.Equal(t, 8, cfg.HTTPClientSettings.MaxIdleConnsPerHost)
}
