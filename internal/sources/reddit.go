package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/goccy/go-json"
)

// RedditSource searches Reddit posts through the ScrapeCreators API
type RedditSource struct {
	*scrapeCreatorsClient
}

type redditSearchResponse struct {
	Posts []json.RawMessage `json:"posts"`
	After json.RawMessage   `json:"after"`
}

// NewRedditSource creates a new Reddit source
func NewRedditSource(apiKey string, opts ...Option) *RedditSource {
	return &RedditSource{scrapeCreatorsClient: newScrapeCreatorsClient(apiKey, opts)}
}

func (r *RedditSource) GetName() string {
	return models.SourceReddit
}

func (r *RedditSource) GetPlatform() models.Platform {
	return models.PlatformForum
}

func (r *RedditSource) IsEnabled() bool {
	return r.enabled()
}

func (r *RedditSource) QueryPause() time.Duration {
	return r.queryPause
}

func (r *RedditSource) QueryVariants(brand string) []string {
	return []string{
		brand,
		fmt.Sprintf("%q", brand),
		brand + " review",
		brand + " opinion",
		brand + " experience",
	}
}

func (r *RedditSource) Fetch(ctx context.Context, req Request) (*Page, error) {
	params := map[string]string{
		"query": req.Query,
		"sort":  "relevance",
		"trim":  "true",
	}
	if timeframe := redditTimeframe(req.DaysBack); timeframe != "" {
		params["timeframe"] = timeframe
	}
	if req.Token != "" {
		params["after"] = req.Token
	}

	var resp redditSearchResponse
	if err := r.get(ctx, "Reddit", "/v1/reddit/search", params, &resp); err != nil {
		return nil, err
	}

	return &Page{
		Items:     rawItems(models.SourceReddit, "post", req.Query, resp.Posts),
		NextToken: tokenString(resp.After),
	}, nil
}

func redditTimeframe(daysBack int) string {
	switch {
	case daysBack <= 0:
		return ""
	case daysBack <= 1:
		return "day"
	case daysBack <= 7:
		return "week"
	case daysBack <= 30:
		return "month"
	case daysBack <= 365:
		return "year"
	}
	return ""
}
