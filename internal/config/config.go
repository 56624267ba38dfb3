// Package config loads service configuration from the environment. A .env
// file in the working directory is honored when present. Every knob the
// provider flow uses has the production default baked in, so a bare
// BRIGHTDATA_API_KEY is the only setting most deployments touch.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"RESEARCHD_ADDR" envDefault:":8000"`

	// BrightData provider access. A missing key is not fatal: searches
	// fail soft and runs end as partial instead.
	BrightDataAPIKey  string   `env:"BRIGHTDATA_API_KEY"`
	BrightDataBaseURL string   `env:"BRIGHTDATA_BASE_URL" envDefault:"https://api.brightdata.com"`
	SerpZones         []string `env:"BRIGHTDATA_SERP_ZONES" envDefault:"ai_agent"`
	DiscoverDatasetID string   `env:"BRIGHTDATA_DISCOVER_DATASET_ID" envDefault:"gd_lvz8ah06191smkebj4"`
	CommentsDatasetID string   `env:"BRIGHTDATA_COMMENTS_DATASET_ID" envDefault:"gd_lvzdpsdlw09j6t702"`

	ResearchTimeout      time.Duration `env:"RESEARCHD_RESEARCH_TIMEOUT" envDefault:"7m"`
	SnapshotPollInterval time.Duration `env:"RESEARCHD_SNAPSHOT_POLL_INTERVAL" envDefault:"5s"`
	SnapshotPollTimeout  time.Duration `env:"RESEARCHD_SNAPSHOT_POLL_TIMEOUT" envDefault:"10m"`
	RequestTimeout       time.Duration `env:"RESEARCHD_REQUEST_TIMEOUT" envDefault:"30s"`

	RedditPosts    int `env:"RESEARCHD_REDDIT_POSTS" envDefault:"75"`
	RedditDaysBack int `env:"RESEARCHD_REDDIT_DAYS_BACK" envDefault:"10"`
	MaxRedditURLs  int `env:"RESEARCHD_MAX_REDDIT_URLS" envDefault:"2"`
}

// Load reads .env (best effort) and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}
