package brightdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	retry "github.com/avast/retry-go"
)

const (
	triggerPath  = "/datasets/v3/trigger"
	progressPath = "/datasets/v3/progress/"
	snapshotPath = "/datasets/v3/snapshot/"
)

// runSnapshot drives the full asynchronous flow for one dataset request:
// trigger, poll until terminal, download. Nil means the collection never
// became available; callers treat that as a skippable partial failure.
func (c *Client) runSnapshot(ctx context.Context, operation string, params map[string]string, payload any) []byte {
	c.logger.Info("triggering snapshot", "operation", operation)
	id, ok := c.triggerSnapshot(ctx, params, payload)
	if !ok {
		c.logger.Warn("snapshot trigger failed", "operation", operation)
		return nil
	}

	c.logger.Info("polling snapshot", "operation", operation, "snapshot_id", id)
	if !c.pollSnapshot(ctx, id) {
		c.logger.Warn("snapshot failed or timed out", "operation", operation, "snapshot_id", id)
		return nil
	}

	c.logger.Info("downloading snapshot", "operation", operation, "snapshot_id", id)
	return c.downloadSnapshot(ctx, id)
}

// triggerSnapshot is a single POST returning the opaque snapshot id.
func (c *Client) triggerSnapshot(ctx context.Context, params map[string]string, payload any) (string, bool) {
	body, ok := c.post(ctx, triggerPath, params, payload)
	if !ok {
		return "", false
	}

	var resp struct {
		SnapshotID string `json:"snapshot_id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("trigger response not parseable", "error", err)
		return "", false
	}
	if resp.SnapshotID == "" {
		c.logger.Error("trigger response missing snapshot_id")
		return "", false
	}
	return resp.SnapshotID, true
}

// pollSnapshot blocks until the upstream reports ready (true), failed
// (false), or the poll deadline elapses (false). The upstream exposes no
// push channel, so this is a plain interval poll; individual request
// failures are skipped and polling continues until the deadline.
func (c *Client) pollSnapshot(ctx context.Context, id string) bool {
	deadline := time.Now().Add(c.cfg.PollTimeout)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if body, ok := c.get(ctx, progressPath+id, nil); ok {
			var progress struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal(body, &progress); err != nil {
				c.logger.Warn("progress response not parseable", "snapshot_id", id, "error", err)
			} else {
				switch progress.Status {
				case "ready":
					return true
				case "failed", "error":
					c.logger.Error("snapshot failed upstream", "snapshot_id", id, "status", progress.Status)
					return false
				}
			}
		}

		if time.Now().After(deadline) {
			c.logger.Warn("snapshot poll deadline elapsed", "snapshot_id", id)
			return false
		}

		select {
		case <-ctx.Done():
			c.logger.Warn("snapshot poll cancelled", "snapshot_id", id)
			return false
		case <-ticker.C:
		}
	}
}

// downloadSnapshot fetches the full result set once the snapshot is ready.
// The same logical collection is returned on each call, so a flaky fetch is
// simply retried.
func (c *Client) downloadSnapshot(ctx context.Context, id string) []byte {
	var body []byte
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, ok := c.get(ctx, snapshotPath+id, map[string]string{"format": "json"})
			if !ok {
				return fmt.Errorf("snapshot %s download attempt failed", id)
			}
			body = b
			return nil
		},
		retry.Attempts(3),
		retry.Delay(c.cfg.PollInterval),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		c.logger.Error("snapshot download failed", "snapshot_id", id, "error", err)
		return nil
	}
	return body
}
