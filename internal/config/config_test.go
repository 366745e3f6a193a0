package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./dealradar.db", cfg.Database.Path)
	assert.Equal(t, 6*time.Hour, cfg.Schedule.ParseScrapeInterval())
	assert.True(t, cfg.Retailers.AmazonAU.Enabled)
	assert.Len(t, cfg.Retailers.AmazonAU.Categories, 7)
	assert.True(t, cfg.Retailers.BargainFeeds.Enabled)
	assert.Equal(t, 50, cfg.Collections.Limit)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 1.0,
		cfg.Scoring.DiscountWeight+cfg.Scoring.QualityWeight+cfg.Scoring.CredibilityWeight+
			cfg.Scoring.PriceTierWeight+cfg.Scoring.LegitimacyWeight, 0.0001)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/custom.db
schedule:
  scrape_interval: 2h
retailers:
  amazon_au:
    enabled: false
server:
  port: 9090
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Hour, cfg.Schedule.ParseScrapeInterval())
	assert.False(t, cfg.Retailers.AmazonAU.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Untouched sections keep their defaults.
	assert.Equal(t, 50, cfg.Collections.Limit)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DEALRADAR_DB_PATH", "/data/radar.db")
	t.Setenv("PROGRESS_WEBHOOK_URL", "https://hooks.example/deal")
	t.Setenv("PROGRESS_WEBHOOK_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/data/radar.db", cfg.Database.Path)
	assert.True(t, cfg.Progress.Webhook.Enabled)
	assert.Equal(t, "https://hooks.example/deal", cfg.Progress.Webhook.URL)
	assert.Equal(t, "s3cret", cfg.Progress.Webhook.Secret)
}

func TestParseScrapeIntervalInvalid(t *testing.T) {
	s := ScheduleConfig{ScrapeInterval: "soon"}
	assert.Equal(t, 6*time.Hour, s.ParseScrapeInterval())
}

func TestParseRetryDelays(t *testing.T) {
	f := FetchConfig{RetryDelays: []string{"1s", "5s"}}
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second}, f.ParseRetryDelays())

	assert.Nil(t, FetchConfig{}.ParseRetryDelays())
	assert.Nil(t, FetchConfig{RetryDelays: []string{"1s", "bogus"}}.ParseRetryDelays())
}
