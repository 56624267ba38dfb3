package domain

// SearchEngine selects which SERP backend a query is routed to.
type SearchEngine string

const (
	EngineGoogle SearchEngine = "google"
	EngineBing   SearchEngine = "bing"
)

// SerpResults is the normalized subset kept from a raw SERP payload.
// Missing fields default to empty containers rather than nil lookups upstream.
type SerpResults struct {
	Knowledge map[string]any   `json:"knowledge"`
	Organic   []map[string]any `json:"organic"`
}

type RedditPost struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type RedditPosts struct {
	Posts      []RedditPost `json:"parsed_posts"`
	TotalFound int          `json:"total_found"`
}

type RedditComment struct {
	CommentID string `json:"comment_id"`
	Content   string `json:"content"`
	Date      string `json:"date"`
}

type RedditComments struct {
	Comments       []RedditComment `json:"comments"`
	TotalRetrieved int             `json:"total_retrieved"`
}

// DiscoverOptions mirror the dataset discovery filters.
type DiscoverOptions struct {
	Date       string
	SortBy     string
	NumOfPosts int
}

// RetrieveOptions mirror the dataset post-retrieval filters.
type RetrieveOptions struct {
	DaysBack       int
	LoadAllReplies bool
	CommentLimit   string
}

// ResearchState flows through the pipeline: the question plus one slot per
// data source. A nil slot means that source produced nothing usable.
type ResearchState struct {
	Question           string
	GoogleResults      *SerpResults
	BingResults        *SerpResults
	RedditResults      *RedditPosts
	SelectedRedditURLs []string
	RedditPostData     *RedditComments
	FinalAnswer        string
}
