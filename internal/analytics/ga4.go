package analytics

import (
	"context"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultGA4BaseURL is the Google Analytics Data API endpoint
	DefaultGA4BaseURL = "https://analyticsdata.googleapis.com/v1beta"
	// DefaultOrganicShare is the share of organic search sessions counted as branded
	DefaultOrganicShare = 0.3

	analyticsScope = "https://www.googleapis.com/auth/analytics.readonly"

	channelDirect        = "Direct"
	channelOrganicSearch = "Organic Search"
)

// Source supplies measured traffic aggregates for the metrics aggregator
type Source interface {
	DirectTraffic(ctx context.Context, daysBack int) (int, error)
	BrandedSearch(ctx context.Context, terms []string, daysBack int) (int, error)
}

// GA4Options configures the GA4 client. CredentialsJSON wins over CredentialsFile;
// with neither, application default credentials are used.
type GA4Options struct {
	PropertyID      string
	CredentialsFile string
	CredentialsJSON string
	OrganicShare    float64
	BaseURL         string
}

// GA4Client reads session counts from the GA4 Data API runReport method
type GA4Client struct {
	client       *resty.Client
	property     string
	organicShare float64
	now          func() time.Time
}

var _ Source = (*GA4Client)(nil)

// NewGA4Client resolves service-account credentials and builds an authorized client
func NewGA4Client(ctx context.Context, opts GA4Options) (*GA4Client, error) {
	if opts.PropertyID == "" {
		return nil, errors.New("GA4 property id is required")
	}

	credsJSON := []byte(opts.CredentialsJSON)
	if len(credsJSON) == 0 && opts.CredentialsFile != "" {
		data, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read GA4 credentials file %s", opts.CredentialsFile)
		}
		credsJSON = data
	}

	var creds *google.Credentials
	var err error
	if len(credsJSON) > 0 {
		creds, err = google.CredentialsFromJSON(ctx, credsJSON, analyticsScope)
	} else {
		creds, err = google.FindDefaultCredentials(ctx, analyticsScope)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load GA4 credentials")
	}

	return NewGA4ClientWithHTTP(oauth2.NewClient(ctx, creds.TokenSource), opts), nil
}

// NewGA4ClientWithHTTP uses an already authorized http client
func NewGA4ClientWithHTTP(httpClient *http.Client, opts GA4Options) *GA4Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultGA4BaseURL
	}
	share := opts.OrganicShare
	if share <= 0 {
		share = DefaultOrganicShare
	}
	property := opts.PropertyID
	if !strings.HasPrefix(property, "properties/") {
		property = "properties/" + property
	}

	client := resty.NewWithClient(httpClient)
	client.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Content-Type", "application/json")

	return &GA4Client{
		client:       client,
		property:     property,
		organicShare: share,
		now:          time.Now,
	}
}

// DirectTraffic sums Direct channel sessions over the last daysBack days
func (g *GA4Client) DirectTraffic(ctx context.Context, daysBack int) (int, error) {
	sessions, err := g.channelSessions(ctx, channelDirect, daysBack)
	if err != nil {
		return 0, errors.Wrap(err, "direct traffic")
	}
	return int(sessions), nil
}

// BrandedSearch estimates branded searches as a fixed share of measured organic search sessions.
// GA4 does not expose search terms, so terms are only used for logging.
func (g *GA4Client) BrandedSearch(ctx context.Context, terms []string, daysBack int) (int, error) {
	sessions, err := g.channelSessions(ctx, channelOrganicSearch, daysBack)
	if err != nil {
		return 0, errors.Wrap(err, "branded search")
	}
	branded := int(math.Floor(sessions * g.organicShare))
	logrus.Debugf("GA4 organic sessions %.0f, branded estimate %d for terms %v", sessions, branded, terms)
	return branded, nil
}

type runReportRequest struct {
	DateRanges      []dateRange      `json:"dateRanges"`
	Dimensions      []namedField     `json:"dimensions"`
	Metrics         []namedField     `json:"metrics"`
	DimensionFilter *dimensionFilter `json:"dimensionFilter,omitempty"`
}

type dateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type namedField struct {
	Name string `json:"name"`
}

type dimensionFilter struct {
	Filter struct {
		FieldName    string `json:"fieldName"`
		StringFilter struct {
			MatchType string `json:"matchType"`
			Value     string `json:"value"`
		} `json:"stringFilter"`
	} `json:"filter"`
}

type runReportResponse struct {
	Rows []struct {
		MetricValues []struct {
			Value string `json:"value"`
		} `json:"metricValues"`
	} `json:"rows"`
}

func (g *GA4Client) channelSessions(ctx context.Context, channel string, daysBack int) (float64, error) {
	if daysBack < 1 {
		daysBack = 1
	}
	end := g.now().UTC()
	start := end.AddDate(0, 0, -daysBack)

	filter := &dimensionFilter{}
	filter.Filter.FieldName = "sessionDefaultChannelGrouping"
	filter.Filter.StringFilter.MatchType = "EXACT"
	filter.Filter.StringFilter.Value = channel

	body := runReportRequest{
		DateRanges:      []dateRange{{StartDate: start.Format("2006-01-02"), EndDate: end.Format("2006-01-02")}},
		Dimensions:      []namedField{{Name: "date"}, {Name: "sessionDefaultChannelGrouping"}},
		Metrics:         []namedField{{Name: "sessions"}},
		DimensionFilter: filter,
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/" + g.property + ":runReport")
	if err != nil {
		return 0, errors.Wrap(err, "GA4 request failed")
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, errors.Errorf("GA4 returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var report runReportResponse
	if err := json.Unmarshal(resp.Body(), &report); err != nil {
		return 0, errors.Wrap(err, "failed to decode GA4 report")
	}

	total := 0.0
	for _, row := range report.Rows {
		if len(row.MetricValues) == 0 {
			continue
		}
		if v, err := strconv.ParseFloat(row.MetricValues[0].Value, 64); err == nil {
			total += v
		}
	}
	return total, nil
}
