package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	scrapeCreatorsBaseURL = "https://api.scrapecreators.com"
	userAgent             = "Attribution-Dashboard/1.0"
)

// Option customizes a source at construction time
type Option func(*options)

type options struct {
	baseURL      string
	pageInterval time.Duration
	queryPause   time.Duration
	timeout      time.Duration
}

// WithBaseURL points the source at a different API host
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(url, "/") }
}

// WithPacing overrides the minimum interval between requests and the pause between query variants
func WithPacing(pageInterval, queryPause time.Duration) Option {
	return func(o *options) {
		o.pageInterval = pageInterval
		o.queryPause = queryPause
	}
}

// WithTimeout overrides the HTTP client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

func buildOptions(defaults options, opts []Option) options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}

// scrapeCreatorsClient is shared by the TikTok, YouTube and Reddit sources
type scrapeCreatorsClient struct {
	apiKey     string
	baseURL    string
	client     *resty.Client
	limiter    *rate.Limiter
	queryPause time.Duration
}

func newScrapeCreatorsClient(apiKey string, opts []Option) *scrapeCreatorsClient {
	o := buildOptions(options{
		baseURL:      scrapeCreatorsBaseURL,
		pageInterval: 1 * time.Second,
		queryPause:   2 * time.Second,
		timeout:      30 * time.Second,
	}, opts)

	return &scrapeCreatorsClient{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		client: resty.New().
			SetTimeout(o.timeout).
			SetHeader("User-Agent", userAgent).
			SetHeader("x-api-key", apiKey),
		limiter:    newRateLimiter(o.pageInterval),
		queryPause: o.queryPause,
	}
}

func (c *scrapeCreatorsClient) enabled() bool {
	return c.apiKey != ""
}

// errRateLimited is returned on HTTP 429 so the caller ends pagination for the query
var errRateLimited = errors.New("rate limited")

// get performs a rate limited GET and decodes the JSON body into out
func (c *scrapeCreatorsClient) get(ctx context.Context, source, path string, params map[string]string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.baseURL + path)
	if err != nil {
		return err
	}

	if resp.StatusCode() == 429 {
		logrus.Warnf("%s API rate limit hit for query '%s' - ending pagination", source, params["query"])
		return errRateLimited
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("%s API returned status %d", source, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", source, err)
	}

	return nil
}

// tokenString turns a pagination token that may be a string, a number or null into a string.
// Zero and empty values mean there are no more pages.
func tokenString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "false" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if f, err := strconv.ParseFloat(n.String(), 64); err == nil && f == 0 {
			return ""
		}
		return n.String()
	}

	return ""
}

func rawItems(provider, contentType, query string, list []json.RawMessage) []RawItem {
	items := make([]RawItem, 0, len(list))
	for _, data := range list {
		items = append(items, RawItem{
			Provider:    provider,
			ContentType: contentType,
			Query:       query,
			Data:        data,
		})
	}
	return items
}
