package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/goccy/go-json"
)

// YouTubeSource searches YouTube videos, shorts and live streams through the ScrapeCreators API
type YouTubeSource struct {
	*scrapeCreatorsClient
}

type youTubeSearchResponse struct {
	Videos            []json.RawMessage `json:"videos"`
	Shorts            []json.RawMessage `json:"shorts"`
	Lives             []json.RawMessage `json:"lives"`
	ContinuationToken json.RawMessage   `json:"continuationToken"`
}

// NewYouTubeSource creates a new YouTube source
func NewYouTubeSource(apiKey string, opts ...Option) *YouTubeSource {
	return &YouTubeSource{scrapeCreatorsClient: newScrapeCreatorsClient(apiKey, opts)}
}

func (y *YouTubeSource) GetName() string {
	return models.SourceYouTube
}

func (y *YouTubeSource) GetPlatform() models.Platform {
	return models.PlatformShortVideo
}

func (y *YouTubeSource) IsEnabled() bool {
	return y.enabled()
}

func (y *YouTubeSource) QueryPause() time.Duration {
	return y.queryPause
}

func (y *YouTubeSource) QueryVariants(brand string) []string {
	return []string{
		brand,
		fmt.Sprintf("%q", brand),
		brand + " review",
		brand + " tutorial",
		brand + " unboxing",
	}
}

func (y *YouTubeSource) Fetch(ctx context.Context, req Request) (*Page, error) {
	params := map[string]string{"query": req.Query}
	if req.Token != "" {
		params["continuationToken"] = req.Token
	} else if uploadDate := youTubeUploadDate(req.DaysBack); uploadDate != "" {
		params["uploadDate"] = uploadDate
	}

	var resp youTubeSearchResponse
	if err := y.get(ctx, "YouTube", "/v1/youtube/search", params, &resp); err != nil {
		return nil, err
	}

	var items []RawItem
	items = append(items, rawItems(models.SourceYouTube, "video", req.Query, resp.Videos)...)
	items = append(items, rawItems(models.SourceYouTube, "short", req.Query, resp.Shorts)...)
	items = append(items, rawItems(models.SourceYouTube, "live", req.Query, resp.Lives)...)

	return &Page{
		Items:     items,
		NextToken: tokenString(resp.ContinuationToken),
	}, nil
}

// youTubeUploadDate maps a look-back window onto the upload date filter the API understands
func youTubeUploadDate(daysBack int) string {
	switch {
	case daysBack <= 0:
		return ""
	case daysBack <= 1:
		return "today"
	case daysBack <= 7:
		return "this_week"
	case daysBack <= 30:
		return "this_month"
	}
	return ""
}
