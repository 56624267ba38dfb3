package brightdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/probelab/researchd/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// datasetServer fakes the three-step snapshot flow. Progress statuses are
// served in order, sticking on the last one.
type datasetServer struct {
	t          *testing.T
	statuses   []string
	records    any
	polls      atomic.Int32
	downloads  atomic.Int32
	triggerReq struct {
		params  map[string]string
		payload []map[string]any
	}
}

func (d *datasetServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /datasets/v3/trigger", func(w http.ResponseWriter, r *http.Request) {
		d.triggerReq.params = map[string]string{}
		for key, values := range r.URL.Query() {
			d.triggerReq.params[key] = values[0]
		}
		require.NoError(d.t, json.NewDecoder(r.Body).Decode(&d.triggerReq.payload))
		_ = json.NewEncoder(w).Encode(map[string]string{"snapshot_id": "snap-1"})
	})
	mux.HandleFunc("GET /datasets/v3/progress/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(d.t, "snap-1", r.PathValue("id"))
		n := int(d.polls.Add(1)) - 1
		if n >= len(d.statuses) {
			n = len(d.statuses) - 1
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": d.statuses[n]})
	})
	mux.HandleFunc("GET /datasets/v3/snapshot/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(d.t, "snap-1", r.PathValue("id"))
		require.Equal(d.t, "json", r.URL.Query().Get("format"))
		d.downloads.Add(1)
		_ = json.NewEncoder(w).Encode(d.records)
	})
	return mux
}

func TestDiscoverPosts_FullSnapshotFlow(t *testing.T) {
	fake := &datasetServer{
		t:        t,
		statuses: []string{"running", "running", "ready"},
		records: []any{
			map[string]any{"title": "Best EV?", "url": "https://reddit.com/r/cars/1"},
			"bare string record",
			42,
		},
	}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	posts := client.DiscoverPosts(context.Background(), "electric cars", domain.DiscoverOptions{})

	require.NotNil(t, posts)
	require.Len(t, posts.Posts, 2, "records of unknown shape are skipped")
	assert.Equal(t, 2, posts.TotalFound)
	assert.Equal(t, "Best EV?", posts.Posts[0].Title)
	assert.Equal(t, "https://reddit.com/r/cars/1", posts.Posts[0].URL)
	assert.Equal(t, "bare string record", posts.Posts[1].Title)
	assert.GreaterOrEqual(t, fake.polls.Load(), int32(3))

	assert.Equal(t, "ds-discover", fake.triggerReq.params["dataset_id"])
	assert.Equal(t, "discover_new", fake.triggerReq.params["type"])
	assert.Equal(t, "keyword", fake.triggerReq.params["discover_by"])
	assert.Equal(t, "true", fake.triggerReq.params["include_errors"])
	require.Len(t, fake.triggerReq.payload, 1)
	assert.Equal(t, "electric cars", fake.triggerReq.payload[0]["keyword"])
	assert.Equal(t, "All time", fake.triggerReq.payload[0]["date"])
	assert.Equal(t, "Hot", fake.triggerReq.payload[0]["sort_by"])
	assert.Equal(t, float64(75), fake.triggerReq.payload[0]["num_of_posts"])
}

func TestDiscoverPosts_FailedSnapshot(t *testing.T) {
	fake := &datasetServer{t: t, statuses: []string{"running", "failed"}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	assert.Nil(t, client.DiscoverPosts(context.Background(), "q", domain.DiscoverOptions{}))
	assert.Equal(t, int32(0), fake.downloads.Load())
}

func TestRetrieveComments_PayloadAndParsing(t *testing.T) {
	fake := &datasetServer{
		t:        t,
		statuses: []string{"ready"},
		records: []map[string]string{
			{"comment_id": "c1", "comment": "love mine", "date_posted": "2025-08-01"},
			{"comment_id": "c2", "comment": "range anxiety is real"},
		},
	}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	comments := client.RetrieveComments(context.Background(),
		[]string{"https://reddit.com/a", "https://reddit.com/b"},
		domain.RetrieveOptions{DaysBack: 30, CommentLimit: "50"})

	require.NotNil(t, comments)
	assert.Equal(t, 2, comments.TotalRetrieved)
	assert.Equal(t, "c1", comments.Comments[0].CommentID)
	assert.Equal(t, "love mine", comments.Comments[0].Content)
	assert.Equal(t, "2025-08-01", comments.Comments[0].Date)

	assert.Equal(t, "ds-comments", fake.triggerReq.params["dataset_id"])
	require.Len(t, fake.triggerReq.payload, 2)
	assert.Equal(t, "https://reddit.com/a", fake.triggerReq.payload[0]["url"])
	assert.Equal(t, float64(30), fake.triggerReq.payload[0]["days_back"])
	assert.Equal(t, "50", fake.triggerReq.payload[0]["comment_limit"])
}

func TestRetrieveComments_NoURLs(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	assert.Nil(t, client.RetrieveComments(context.Background(), nil, domain.RetrieveOptions{}))
	assert.Equal(t, int32(0), calls.Load())
}

func TestPollSnapshot_DeadlineElapses(t *testing.T) {
	fake := &datasetServer{t: t, statuses: []string{"running"}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	client.cfg.PollTimeout = 30 * time.Millisecond

	assert.False(t, client.pollSnapshot(context.Background(), "snap-1"))
}

func TestPollSnapshot_ContextCancelled(t *testing.T) {
	fake := &datasetServer{t: t, statuses: []string{"running"}}
	server := httptest.NewServer(fake.handler())
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, client.pollSnapshot(ctx, "snap-1"))
}

func TestDownloadSnapshot_RetriesTransientFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[{"title":"recovered"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	body := client.downloadSnapshot(context.Background(), "snap-1")

	require.NotNil(t, body)
	assert.Contains(t, string(body), "recovered")
	assert.Equal(t, int32(3), attempts.Load())
}

func TestDownloadSnapshot_GivesUpAfterAttempts(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)
	assert.Nil(t, client.downloadSnapshot(context.Background(), "snap-1"))
	assert.Equal(t, int32(3), attempts.Load())
}
