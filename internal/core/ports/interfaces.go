package ports

import (
	"context"

	"github.com/probelab/researchd/internal/core/domain"
)

// Pipeline turns a research state into a final state. The production
// implementation fans out to external providers; tests inject fakes
// (instant success, instant failure, never-returns).
type Pipeline interface {
	Invoke(ctx context.Context, state domain.ResearchState) (domain.ResearchState, error)
}

// SessionRepository owns storage and retrieval of session records by id.
// Update applies the mutator under the store's lock so lifecycle logic
// stays with the caller.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id domain.SessionID) (domain.Session, error)
	Update(ctx context.Context, id domain.SessionID, mutate func(*domain.Session)) error
	Delete(ctx context.Context, id domain.SessionID) error
	List(ctx context.Context) ([]domain.Session, error)
	Count(ctx context.Context) int
}

// SerpSearcher issues an inline SERP query. A nil result means every
// configured zone failed; failures are logged at the boundary, never raised.
type SerpSearcher interface {
	Search(ctx context.Context, query string, engine domain.SearchEngine) *domain.SerpResults
}

// DiscussionSource runs the asynchronous dataset flow (trigger, poll,
// download) against the discussion provider. Nil results are soft failures.
type DiscussionSource interface {
	DiscoverPosts(ctx context.Context, keyword string, opts domain.DiscoverOptions) *domain.RedditPosts
	RetrieveComments(ctx context.Context, urls []string, opts domain.RetrieveOptions) *domain.RedditComments
}

// Synthesizer composes the final answer text from gathered source results.
// An empty answer with a nil error marks the run as partial.
type Synthesizer interface {
	Synthesize(ctx context.Context, state domain.ResearchState) (string, error)
}
