package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries every tunable of the dual-feed run. All thresholds have
// working defaults; only the archive and remote features need credentials.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// Remote model access. Empty key disables remote entity extraction and
	// cluster scoring; the run degrades to local heuristics.
	LLMAPIKey    string  `env:"LLM_API_KEY"`
	LLMModel     string  `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMBaseURL   string  `env:"LLM_BASE_URL"`
	RateLimitRPS float64 `env:"RATE_LIMIT_RPS" envDefault:"1"`

	// Expansion.
	MaxCandidates          int     `env:"MAX_CANDIDATES" envDefault:"50"`
	MaxRelatedPerStory     int     `env:"MAX_RELATED_PER_STORY" envDefault:"10"`
	IncludeSourceOnlyLinks bool    `env:"INCLUDE_SOURCE_ONLY_LINKS" envDefault:"false"`
	MinRelevance           float64 `env:"MIN_RELEVANCE" envDefault:"0"`

	// Entity extraction.
	ExtractionWorkers        int     `env:"EXTRACTION_WORKERS" envDefault:"4"`
	ExtractionConfidenceGate float64 `env:"EXTRACTION_CONFIDENCE_GATE" envDefault:"0.7"`

	// Duplicate detection.
	DedupStrategy       string  `env:"DEDUP_STRATEGY" envDefault:"combined"`
	TitleThreshold      float64 `env:"DEDUP_TITLE_THRESHOLD" envDefault:"0.88"`
	ContentThreshold    float64 `env:"DEDUP_CONTENT_THRESHOLD" envDefault:"0.80"`
	EntityThreshold     float64 `env:"DEDUP_ENTITY_THRESHOLD" envDefault:"0.75"`
	PreserveHighScorers bool    `env:"DEDUP_PRESERVE_HIGH_SCORERS" envDefault:"true"`
	MinScoreToPreserve  float64 `env:"DEDUP_MIN_SCORE_TO_PRESERVE" envDefault:"7.0"`

	// Clustering.
	EventThreshold  float64 `env:"CLUSTER_EVENT_THRESHOLD" envDefault:"0.86"`
	ThemeMargin     float64 `env:"CLUSTER_THEME_MARGIN" envDefault:"0.10"`
	ThemeMin        float64 `env:"CLUSTER_THEME_MIN" envDefault:"0.35"`
	ThemeMax        float64 `env:"CLUSTER_THEME_MAX" envDefault:"0.75"`
	ThemeWindowDays int     `env:"CLUSTER_THEME_WINDOW_DAYS" envDefault:"3"`

	// Feed assembly.
	TopK      int    `env:"FEED_TOP_K" envDefault:"15"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"."`

	// Run archive. Empty DSN disables archiving.
	PostgresDSN string `env:"POSTGRES_DSN"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects threshold combinations that cannot produce a feed.
func (c *Config) Validate() error {
	for _, t := range []struct {
		name  string
		value float64
	}{
		{"DEDUP_TITLE_THRESHOLD", c.TitleThreshold},
		{"DEDUP_CONTENT_THRESHOLD", c.ContentThreshold},
		{"DEDUP_ENTITY_THRESHOLD", c.EntityThreshold},
		{"CLUSTER_EVENT_THRESHOLD", c.EventThreshold},
		{"CLUSTER_THEME_MIN", c.ThemeMin},
		{"CLUSTER_THEME_MAX", c.ThemeMax},
	} {
		if t.value < 0 || t.value > 1 {
			return fmt.Errorf("%s must be within [0, 1], got %v", t.name, t.value)
		}
	}

	if c.ThemeMin > c.ThemeMax {
		return fmt.Errorf("CLUSTER_THEME_MIN %v exceeds CLUSTER_THEME_MAX %v", c.ThemeMin, c.ThemeMax)
	}

	if c.ExtractionWorkers < 1 {
		return fmt.Errorf("EXTRACTION_WORKERS must be at least 1, got %d", c.ExtractionWorkers)
	}

	if c.TopK < 0 {
		return fmt.Errorf("FEED_TOP_K must not be negative, got %d", c.TopK)
	}

	return nil
}

// RemoteEnabled reports whether remote model calls are configured.
func (c *Config) RemoteEnabled() bool {
	return c.LLMAPIKey != ""
}

// ArchiveEnabled reports whether run archiving is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.PostgresDSN != ""
}
