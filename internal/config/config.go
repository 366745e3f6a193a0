package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database    DatabaseConfig    `yaml:"database"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Retailers   RetailersConfig   `yaml:"retailers"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Collections CollectionsConfig `yaml:"collections"`
	Fetch       FetchConfig       `yaml:"fetch"`
	Progress    ProgressConfig    `yaml:"progress"`
	Server      ServerConfig      `yaml:"server"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ScheduleConfig configures how often the pipeline runs.
type ScheduleConfig struct {
	ScrapeInterval string `yaml:"scrape_interval"`
}

// ParseScrapeInterval returns the scrape interval as time.Duration.
func (s ScheduleConfig) ParseScrapeInterval() time.Duration {
	d, err := time.ParseDuration(s.ScrapeInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// RetailersConfig holds configuration for all deal sources.
type RetailersConfig struct {
	AmazonAU     AmazonAUConfig     `yaml:"amazon_au"`
	BargainFeeds BargainFeedsConfig `yaml:"bargain_feeds"`
}

// AmazonAUConfig for the Amazon Australia scraper.
type AmazonAUConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Categories []string `yaml:"categories"`
}

// BargainFeedsConfig for RSS bargain feed scrapers.
type BargainFeedsConfig struct {
	Enabled bool       `yaml:"enabled"`
	Feeds   []FeedItem `yaml:"feeds"`
}

// FeedItem is a single bargain feed entry.
type FeedItem struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// ScoringConfig holds the dimension weights. They should sum to 1.0; all
// zeros selects the built-in defaults.
type ScoringConfig struct {
	DiscountWeight    float64 `yaml:"discount_weight"`
	QualityWeight     float64 `yaml:"quality_weight"`
	CredibilityWeight float64 `yaml:"credibility_weight"`
	PriceTierWeight   float64 `yaml:"price_tier_weight"`
	LegitimacyWeight  float64 `yaml:"legitimacy_weight"`
}

// CollectionsConfig configures the smart collection builder.
type CollectionsConfig struct {
	Limit int `yaml:"limit"`
}

// FetchConfig configures page fetch retries.
type FetchConfig struct {
	RetryDelays []string `yaml:"retry_delays"`
}

// ParseRetryDelays returns the retry schedule, or nil when unset or invalid
// so the fetcher falls back to its default schedule.
func (f FetchConfig) ParseRetryDelays() []time.Duration {
	if len(f.RetryDelays) == 0 {
		return nil
	}
	delays := make([]time.Duration, 0, len(f.RetryDelays))
	for _, raw := range f.RetryDelays {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil
		}
		delays = append(delays, d)
	}
	return delays
}

// ProgressConfig configures progress notification destinations.
type ProgressConfig struct {
	Webhook WebhookConfig `yaml:"webhook"`
	Slack   SlackConfig   `yaml:"slack"`
}

// WebhookConfig for generic webhook notifications.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// SlackConfig for Slack webhook notifications.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./dealradar.db"},
		Schedule: ScheduleConfig{ScrapeInterval: "6h"},
		Retailers: RetailersConfig{
			AmazonAU: AmazonAUConfig{
				Enabled: true,
				Categories: []string{
					"electronics", "computers", "home",
					"kitchen", "sports", "toys", "fashion",
				},
			},
			BargainFeeds: BargainFeedsConfig{
				Enabled: true,
				Feeds: []FeedItem{
					{Name: "OzBargain", URL: "https://www.ozbargain.com.au/deals/feed"},
				},
			},
		},
		Scoring: ScoringConfig{
			DiscountWeight:    0.30,
			QualityWeight:     0.25,
			CredibilityWeight: 0.15,
			PriceTierWeight:   0.15,
			LegitimacyWeight:  0.15,
		},
		Collections: CollectionsConfig{Limit: 50},
		Fetch:       FetchConfig{RetryDelays: []string{"10s", "30s", "60s"}},
		Progress:    ProgressConfig{},
		Server:      ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEALRADAR_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PROGRESS_WEBHOOK_URL"); v != "" {
		cfg.Progress.Webhook.URL = v
		cfg.Progress.Webhook.Enabled = true
	}
	if v := os.Getenv("PROGRESS_WEBHOOK_SECRET"); v != "" {
		cfg.Progress.Webhook.Secret = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Progress.Slack.WebhookURL = v
		cfg.Progress.Slack.Enabled = true
	}
}
