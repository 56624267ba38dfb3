package brightdata

import (
	"context"
)

// post issues an authenticated POST. Transport errors, non-2xx statuses and
// unreadable bodies are logged here and reported as absence.
func (c *Client) post(ctx context.Context, path string, params map[string]string, body any) ([]byte, bool) {
	req := c.http.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Post(path)
	if err != nil {
		c.logger.Error("api request failed", "path", path, "error", err)
		return nil, false
	}
	if !resp.IsSuccess() {
		c.logger.Error("api request failed", "path", path, "status", resp.StatusCode(), "body", resp.String())
		return nil, false
	}
	return resp.Body(), true
}

func (c *Client) get(ctx context.Context, path string, params map[string]string) ([]byte, bool) {
	req := c.http.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(path)
	if err != nil {
		c.logger.Error("api request failed", "path", path, "error", err)
		return nil, false
	}
	if !resp.IsSuccess() {
		c.logger.Error("api request failed", "path", path, "status", resp.StatusCode(), "body", resp.String())
		return nil, false
	}
	return resp.Body(), true
}
