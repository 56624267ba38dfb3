// Package brightdata talks to the BrightData APIs: inline SERP requests via
// zone routing and asynchronous dataset collections resolved by snapshot
// polling. Every failure at this boundary is logged and surfaced upward as
// an absent result, never as an error.
package brightdata

import (
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/probelab/researchd/internal/core/ports"
)

type Config struct {
	APIKey            string
	BaseURL           string
	SerpZones         []string
	DiscoverDatasetID string
	CommentsDatasetID string
	PollInterval      time.Duration
	PollTimeout       time.Duration
	RequestTimeout    time.Duration
}

type Client struct {
	logger *slog.Logger
	http   *resty.Client
	cfg    Config
}

var (
	_ ports.SerpSearcher     = (*Client)(nil)
	_ ports.DiscussionSource = (*Client)(nil)
)

func NewClient(logger *slog.Logger, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.brightdata.com"
	}
	if len(cfg.SerpZones) == 0 {
		cfg.SerpZones = []string{"ai_agent"}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Minute
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.RequestTimeout)

	return &Client{
		logger: logger,
		http:   httpClient,
		cfg:    cfg,
	}
}
