package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/goccy/go-json"
)

// TikTokSource searches TikTok through the ScrapeCreators API
type TikTokSource struct {
	*scrapeCreatorsClient
}

type tikTokSearchResponse struct {
	SearchItemList []json.RawMessage `json:"search_item_list"`
	Cursor         json.RawMessage   `json:"cursor"`
}

// NewTikTokSource creates a new TikTok source
func NewTikTokSource(apiKey string, opts ...Option) *TikTokSource {
	return &TikTokSource{scrapeCreatorsClient: newScrapeCreatorsClient(apiKey, opts)}
}

func (t *TikTokSource) GetName() string {
	return models.SourceTikTok
}

func (t *TikTokSource) GetPlatform() models.Platform {
	return models.PlatformShortVideo
}

func (t *TikTokSource) IsEnabled() bool {
	return t.enabled()
}

func (t *TikTokSource) QueryPause() time.Duration {
	return t.queryPause
}

// QueryVariants covers the plain name, hashtag and handle forms and an exact match
func (t *TikTokSource) QueryVariants(brand string) []string {
	lower := strings.ToLower(brand)
	return []string{
		brand,
		"#" + strings.ReplaceAll(lower, " ", ""),
		"@" + strings.ReplaceAll(lower, " ", ""),
		fmt.Sprintf("%q", brand),
	}
}

func (t *TikTokSource) Fetch(ctx context.Context, req Request) (*Page, error) {
	params := map[string]string{
		"query": req.Query,
		"trim":  "true",
	}
	if req.Token != "" {
		params["cursor"] = req.Token
	}

	var resp tikTokSearchResponse
	if err := t.get(ctx, "TikTok", "/v1/tiktok/search/keyword", params, &resp); err != nil {
		return nil, err
	}

	return &Page{
		Items:     rawItems(models.SourceTikTok, "video", req.Query, resp.SearchItemList),
		NextToken: tokenString(resp.Cursor),
	}, nil
}
