package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const exaBaseURL = "https://api.exa.ai"

var exaExcludedDomains = []string{
	"pinterest.com",
	"instagram.com",
	"facebook.com",
	"spam-domain.com",
}

// ExaSource implements open-web neural search through the Exa API
type ExaSource struct {
	apiKey  string
	baseURL string
	client  *resty.Client
	limiter *rate.Limiter
	now     func() time.Time
}

type exaSearchRequest struct {
	Query              string         `json:"query"`
	Type               string         `json:"type"`
	UseAutoprompt      bool           `json:"useAutoprompt"`
	NumResults         int            `json:"numResults"`
	StartPublishedDate string         `json:"startPublishedDate,omitempty"`
	EndPublishedDate   string         `json:"endPublishedDate,omitempty"`
	ExcludeDomains     []string       `json:"excludeDomains"`
	Text               exaTextOptions `json:"text"`
}

type exaTextOptions struct {
	MaxCharacters   int  `json:"maxCharacters"`
	IncludeHTMLTags bool `json:"includeHtmlTags"`
}

type exaSearchResponse struct {
	Results []json.RawMessage `json:"results"`
}

// NewExaSource creates a new Exa web search source
func NewExaSource(apiKey string, opts ...Option) *ExaSource {
	o := buildOptions(options{
		baseURL:      exaBaseURL,
		pageInterval: 1 * time.Second,
		timeout:      30 * time.Second,
	}, opts)

	return &ExaSource{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		client: resty.New().
			SetTimeout(o.timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("x-api-key", apiKey),
		limiter: newRateLimiter(o.pageInterval),
		now:     time.Now,
	}
}

func (e *ExaSource) GetName() string {
	return models.SourceExa
}

func (e *ExaSource) GetPlatform() models.Platform {
	return models.PlatformWeb
}

func (e *ExaSource) IsEnabled() bool {
	return e.apiKey != ""
}

func (e *ExaSource) QueryVariants(brand string) []string {
	return []string{
		brand,
		strings.ToLower(brand),
		fmt.Sprintf("%q", brand),
		brand + " review",
		brand + " alternative",
	}
}

// Fetch runs one search. Exa answers in a single page so NextToken is always empty.
func (e *ExaSource) Fetch(ctx context.Context, req Request) (*Page, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	numResults := req.Limit
	if numResults <= 0 {
		numResults = 10
	}

	payload := exaSearchRequest{
		Query:          req.Query,
		Type:           "neural",
		UseAutoprompt:  true,
		NumResults:     numResults,
		ExcludeDomains: exaExcludedDomains,
		Text:           exaTextOptions{MaxCharacters: 2000},
	}
	if req.DaysBack > 0 {
		end := e.now().UTC()
		payload.StartPublishedDate = end.AddDate(0, 0, -req.DaysBack).Format(time.RFC3339)
		payload.EndPublishedDate = end.Format(time.RFC3339)
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(e.baseURL + "/search")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() == 429 {
		logrus.Warnf("Exa API rate limit hit for query '%s'", req.Query)
		return nil, errRateLimited
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("exa API returned status %d", resp.StatusCode())
	}

	var searchResp exaSearchResponse
	if err := json.Unmarshal(resp.Body(), &searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode Exa response: %w", err)
	}

	return &Page{Items: rawItems(models.SourceExa, "", req.Query, searchResp.Results)}, nil
}
