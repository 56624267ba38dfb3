package brightdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/probelab/researchd/internal/core/domain"
)

var engineBaseURLs = map[domain.SearchEngine]string{
	domain.EngineGoogle: "https://www.google.com/search",
	domain.EngineBing:   "https://www.bing.com/search",
}

// Search runs an inline SERP request through the configured zones in order,
// keeping the first successful response. It returns nil once every zone has
// failed, or immediately for an engine it does not know.
func (c *Client) Search(ctx context.Context, query string, engine domain.SearchEngine) *domain.SerpResults {
	base, ok := engineBaseURLs[engine]
	if !ok {
		c.logger.Error("unsupported search engine", "engine", engine)
		return nil
	}
	target := fmt.Sprintf("%s?q=%s&brd_json=1", base, url.QueryEscape(query))

	for _, zone := range c.cfg.SerpZones {
		c.logger.Info("running serp search", "engine", engine, "zone", zone)

		payload := map[string]string{
			"zone":   zone,
			"url":    target,
			"format": "raw",
		}
		body, ok := c.post(ctx, "/request", nil, payload)
		if !ok {
			c.logger.Warn("serp zone failed", "engine", engine, "zone", zone)
			continue
		}

		var raw struct {
			Knowledge map[string]any   `json:"knowledge"`
			Organic   []map[string]any `json:"organic"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			c.logger.Warn("serp response not parseable", "engine", engine, "zone", zone, "error", err)
			continue
		}

		results := &domain.SerpResults{
			Knowledge: raw.Knowledge,
			Organic:   raw.Organic,
		}
		if results.Knowledge == nil {
			results.Knowledge = map[string]any{}
		}
		if results.Organic == nil {
			results.Organic = []map[string]any{}
		}
		return results
	}

	c.logger.Warn("all serp zones failed", "engine", engine)
	return nil
}
