package brightdata

import (
	"context"
	"encoding/json"

	"github.com/probelab/researchd/internal/core/domain"
)

// DiscoverPosts kicks off a keyword discovery collection and waits for its
// snapshot. Records of unexpected shape are skipped rather than failing the
// whole collection.
func (c *Client) DiscoverPosts(ctx context.Context, keyword string, opts domain.DiscoverOptions) *domain.RedditPosts {
	if opts.Date == "" {
		opts.Date = "All time"
	}
	if opts.SortBy == "" {
		opts.SortBy = "Hot"
	}
	if opts.NumOfPosts <= 0 {
		opts.NumOfPosts = 75
	}

	params := map[string]string{
		"dataset_id":     c.cfg.DiscoverDatasetID,
		"include_errors": "true",
		"type":           "discover_new",
		"discover_by":    "keyword",
	}
	payload := []map[string]any{{
		"keyword":      keyword,
		"date":         opts.Date,
		"sort_by":      opts.SortBy,
		"num_of_posts": opts.NumOfPosts,
	}}

	raw := c.runSnapshot(ctx, "reddit", params, payload)
	if raw == nil {
		return nil
	}

	var records []any
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Error("discovery snapshot not parseable", "error", err)
		return nil
	}

	posts := make([]domain.RedditPost, 0, len(records))
	for i, record := range records {
		switch v := record.(type) {
		case map[string]any:
			title, _ := v["title"].(string)
			postURL, _ := v["url"].(string)
			posts = append(posts, domain.RedditPost{Title: title, URL: postURL})
		case string:
			posts = append(posts, domain.RedditPost{Title: v})
		default:
			c.logger.Warn("skipping discovery record of unexpected shape", "index", i)
		}
	}

	c.logger.Info("parsed discovered posts", "count", len(posts))
	return &domain.RedditPosts{Posts: posts, TotalFound: len(posts)}
}

// RetrieveComments collects the comments of the given post URLs through a
// second dataset snapshot. Nil input is a no-op absence.
func (c *Client) RetrieveComments(ctx context.Context, urls []string, opts domain.RetrieveOptions) *domain.RedditComments {
	if len(urls) == 0 {
		c.logger.Warn("no urls provided for comment retrieval")
		return nil
	}
	if opts.DaysBack <= 0 {
		opts.DaysBack = 10
	}

	params := map[string]string{
		"dataset_id":     c.cfg.CommentsDatasetID,
		"include_errors": "true",
	}
	payload := make([]map[string]any, 0, len(urls))
	for _, postURL := range urls {
		payload = append(payload, map[string]any{
			"url":              postURL,
			"days_back":        opts.DaysBack,
			"load_all_replies": opts.LoadAllReplies,
			"comment_limit":    opts.CommentLimit,
		})
	}

	raw := c.runSnapshot(ctx, "reddit comments", params, payload)
	if raw == nil {
		return nil
	}

	var records []struct {
		CommentID  string `json:"comment_id"`
		Comment    string `json:"comment"`
		DatePosted string `json:"date_posted"`
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		c.logger.Error("comments snapshot not parseable", "error", err)
		return nil
	}

	comments := make([]domain.RedditComment, 0, len(records))
	for _, record := range records {
		comments = append(comments, domain.RedditComment{
			CommentID: record.CommentID,
			Content:   record.Comment,
			Date:      record.DatePosted,
		})
	}

	c.logger.Info("parsed retrieved comments", "count", len(comments))
	return &domain.RedditComments{Comments: comments, TotalRetrieved: len(comments)}
}
