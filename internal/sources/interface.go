package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Source interface defines the contract for all data sources
type Source interface {
	GetName() string
	GetPlatform() models.Platform
	IsEnabled() bool
	// QueryVariants returns the bounded list of queries derived from the brand name
	QueryVariants(brand string) []string
	// Fetch retrieves one page of raw results. An empty NextToken means no more pages.
	Fetch(ctx context.Context, req Request) (*Page, error)
}

// Request describes one page fetch
type Request struct {
	Query    string
	Token    string
	DaysBack int
	// Limit is the number of results wanted, used by sources that size their pages
	Limit int
}

// Page is one response from a source
type Page struct {
	Items     []RawItem
	NextToken string
}

// RawItem is a provider-native payload waiting for normalization
type RawItem struct {
	Provider    string          // models.SourceTikTok, models.SourceExa, ...
	ContentType string          // sub-kind hint such as "video", "short" or "live"
	Query       string          // query variant that produced the item
	Data        json.RawMessage // provider-native JSON object
}

// pacer is implemented by sources that want a pause between query variants
type pacer interface {
	QueryPause() time.Duration
}

// Collect drives a source over all query variants and their pages until each
// variant runs out of pages or maxResults raw items have been gathered. The result
// never holds more than maxResults items.
// Failed requests are logged and end that variant only; the returned error joins
// those failures and is nil when every variant completed.
func Collect(ctx context.Context, src Source, brand string, daysBack, maxResults int) ([]RawItem, error) {
	var items []RawItem
	var errs []error

	variants := src.QueryVariants(brand)
	for i, query := range variants {
		if len(items) >= maxResults {
			break
		}

		if i > 0 {
			if p, ok := src.(pacer); ok && p.QueryPause() > 0 {
				select {
				case <-ctx.Done():
					return capItems(items, maxResults), errors.Join(append(errs, ctx.Err())...)
				case <-time.After(p.QueryPause()):
				}
			}
		}

		perQuery := maxResults / len(variants)
		if perQuery < 1 {
			perQuery = 1
		}

		token := ""
		for {
			page, err := src.Fetch(ctx, Request{
				Query:    query,
				Token:    token,
				DaysBack: daysBack,
				Limit:    perQuery,
			})
			if err != nil {
				logrus.Errorf("Failed to search %s for query '%s': %v", src.GetName(), query, err)
				errs = append(errs, fmt.Errorf("query %q: %w", query, err))
				break
			}

			items = append(items, page.Items...)
			logrus.Debugf("%s returned %d items for query '%s'", src.GetName(), len(page.Items), query)

			token = page.NextToken
			if token == "" || len(items) >= maxResults || ctx.Err() != nil {
				break
			}
		}
	}

	return capItems(items, maxResults), errors.Join(errs...)
}

func capItems(items []RawItem, maxResults int) []RawItem {
	if maxResults >= 0 && len(items) > maxResults {
		return items[:maxResults]
	}
	return items
}
