package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/probelab/researchd/internal/core/domain"
	"github.com/probelab/researchd/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// PipelineConfig carries the tunables of the production research pipeline.
type PipelineConfig struct {
	RedditPosts    int // posts requested from discovery
	RedditDaysBack int // comment retrieval window
	MaxRedditURLs  int // discovered posts whose comments are fetched
}

// ResearchPipeline gathers results from every configured source in parallel
// and synthesizes a final answer from whatever arrived. A source that
// produced nothing is a skippable partial failure, never a pipeline error.
type ResearchPipeline struct {
	logger      *slog.Logger
	serp        ports.SerpSearcher
	discussions ports.DiscussionSource
	synth       ports.Synthesizer
	cfg         PipelineConfig
}

func NewResearchPipeline(logger *slog.Logger, serp ports.SerpSearcher, discussions ports.DiscussionSource, synth ports.Synthesizer, cfg PipelineConfig) *ResearchPipeline {
	if cfg.RedditPosts <= 0 {
		cfg.RedditPosts = 75
	}
	if cfg.RedditDaysBack <= 0 {
		cfg.RedditDaysBack = 10
	}
	if cfg.MaxRedditURLs <= 0 {
		cfg.MaxRedditURLs = 2
	}
	return &ResearchPipeline{
		logger:      logger,
		serp:        serp,
		discussions: discussions,
		synth:       synth,
		cfg:         cfg,
	}
}

var _ ports.Pipeline = (*ResearchPipeline)(nil)

func (p *ResearchPipeline) Invoke(ctx context.Context, state domain.ResearchState) (domain.ResearchState, error) {
	question := state.Question

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		state.GoogleResults = p.serp.Search(gctx, question, domain.EngineGoogle)
		return nil
	})
	g.Go(func() error {
		state.BingResults = p.serp.Search(gctx, question, domain.EngineBing)
		return nil
	})
	g.Go(func() error {
		state.RedditResults = p.discussions.DiscoverPosts(gctx, question, domain.DiscoverOptions{
			Date:       "All time",
			SortBy:     "Hot",
			NumOfPosts: p.cfg.RedditPosts,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return state, fmt.Errorf("source fan-out failed: %w", err)
	}

	state.SelectedRedditURLs = selectPostURLs(state.RedditResults, p.cfg.MaxRedditURLs)
	if len(state.SelectedRedditURLs) > 0 {
		state.RedditPostData = p.discussions.RetrieveComments(ctx, state.SelectedRedditURLs, domain.RetrieveOptions{
			DaysBack: p.cfg.RedditDaysBack,
		})
	}

	answer, err := p.synth.Synthesize(ctx, state)
	if err != nil {
		return state, fmt.Errorf("answer synthesis failed: %w", err)
	}
	state.FinalAnswer = answer

	p.logger.Info("pipeline finished",
		"google", state.GoogleResults != nil,
		"bing", state.BingResults != nil,
		"reddit", state.RedditResults != nil,
		"answered", state.FinalAnswer != "")
	return state, nil
}

// selectPostURLs takes the first discovered posts that carry a URL.
func selectPostURLs(posts *domain.RedditPosts, limit int) []string {
	if posts == nil {
		return nil
	}
	var urls []string
	for _, post := range posts.Posts {
		if post.URL == "" {
			continue
		}
		urls = append(urls, post.URL)
		if len(urls) >= limit {
			break
		}
	}
	return urls
}

// SourceSynthesizer composes the answer text directly from gathered source
// material. It returns an empty answer when every source failed, which the
// tracker classifies as a partial run.
type SourceSynthesizer struct{}

func NewSourceSynthesizer() *SourceSynthesizer {
	return &SourceSynthesizer{}
}

var _ ports.Synthesizer = (*SourceSynthesizer)(nil)

func (SourceSynthesizer) Synthesize(ctx context.Context, state domain.ResearchState) (string, error) {
	var b strings.Builder

	writeSerp := func(name string, results *domain.SerpResults) {
		if results == nil {
			return
		}
		fmt.Fprintf(&b, "## %s results\n", name)
		if title, ok := results.Knowledge["title"].(string); ok && title != "" {
			fmt.Fprintf(&b, "Knowledge: %s\n", title)
			if desc, ok := results.Knowledge["description"].(string); ok && desc != "" {
				fmt.Fprintf(&b, "%s\n", desc)
			}
		}
		for i, organic := range results.Organic {
			if i >= 5 {
				break
			}
			title, _ := organic["title"].(string)
			link, _ := organic["link"].(string)
			snippet, _ := organic["description"].(string)
			if title == "" && snippet == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", title, link, snippet)
		}
		b.WriteString("\n")
	}

	writeSerp("Google", state.GoogleResults)
	writeSerp("Bing", state.BingResults)

	if state.RedditResults != nil && len(state.RedditResults.Posts) > 0 {
		b.WriteString("## Reddit discussions\n")
		for i, post := range state.RedditResults.Posts {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "- %s %s\n", post.Title, post.URL)
		}
		if state.RedditPostData != nil && len(state.RedditPostData.Comments) > 0 {
			fmt.Fprintf(&b, "Sampled %d comments from %d thread(s).\n",
				state.RedditPostData.TotalRetrieved, len(state.SelectedRedditURLs))
		}
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return "", nil
	}

	header := fmt.Sprintf("# Research summary for: %s\n\n", state.Question)
	return header + b.String(), nil
}
