package models

import (
	"strings"
	"time"
)

// Platform is the coarse kind of place a mention was found
type Platform string

const (
	PlatformShortVideo Platform = "short_video"
	PlatformForum      Platform = "forum"
	PlatformWeb        Platform = "web"
	PlatformOther      Platform = "other"
)

// Provider names, one per source adapter
const (
	SourceTikTok  = "tiktok"
	SourceYouTube = "youtube"
	SourceReddit  = "reddit"
	SourceExa     = "exa"
)

// Sentiment labels
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// ContentTypeGeneral is used when a provider gives no sub-kind
const ContentTypeGeneral = "general"

// Engagement holds named counters such as likes, shares, views or score.
// Counters a platform does not report are stored as 0 rather than omitted.
type Engagement map[string]float64

// Get returns the counter or 0 when it is not present
func (e Engagement) Get(key string) float64 {
	if e == nil {
		return 0
	}
	return e[key]
}

// Mention represents one piece of content referencing the tracked brand
type Mention struct {
	ID             string     `json:"id"`
	Platform       Platform   `json:"platform"`
	Source         string     `json:"source"` // "tiktok", "youtube", "reddit", "exa"
	ContentType    string     `json:"content_type"`
	Content        string     `json:"content"`
	Title          string     `json:"title"`
	Author         string     `json:"author"`
	AuthorUsername string     `json:"author_username"`
	AuthorID       string     `json:"author_id"`
	CreatedAt      string     `json:"created_at"` // ISO-8601, kept as text so unparsable values survive a round trip
	DateEstimated  bool       `json:"date_estimated,omitempty"`
	URL            string     `json:"url"`
	Engagement     Engagement `json:"engagement"`

	Sentiment           string  `json:"sentiment"` // "positive", "negative", "neutral"
	SentimentConfidence float64 `json:"sentiment_confidence"`
	SentimentMethod     string  `json:"sentiment_method,omitempty"`
	RelevanceScore      float64 `json:"relevance_score"` // 0-1
	ExtractedAt         string  `json:"extracted_at"`

	Domain         string   `json:"domain,omitempty"`
	Subreddit      string   `json:"subreddit,omitempty"`
	Hashtags       []string `json:"hashtags,omitempty"`
	VideoDuration  float64  `json:"video_duration,omitempty"` // seconds
	Thumbnail      string   `json:"thumbnail,omitempty"`
	SearchQuery    string   `json:"search_query,omitempty"`
	WordCount      int      `json:"word_count,omitempty"`
	HasContactInfo bool     `json:"has_contact_info,omitempty"`
	MentionContext string   `json:"mention_context,omitempty"`
}

// CreatedTime parses CreatedAt. ok is false when the timestamp cannot be parsed.
func (m Mention) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(m.CreatedAt)
}

// MatchesPlatform reports whether the mention belongs to the given filter.
// The filter may be a provider name ("tiktok", "web"), a platform kind or "all".
func (m Mention) MatchesPlatform(filter string) bool {
	filter = strings.ToLower(strings.TrimSpace(filter))
	switch filter {
	case "", "all":
		return true
	case "web":
		return m.Platform == PlatformWeb
	}
	return m.Source == filter || string(m.Platform) == filter
}

// timestampLayouts are tried in order by ParseTimestamp
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses the ISO-8601 variants the pipeline produces and consumes
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t the way every timestamp in a Mention is stored
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// Snapshot is the full cached mention set from one completed ingestion run
type Snapshot struct {
	Timestamp  string    `json:"timestamp"`
	BrandName  string    `json:"brand_name"`
	TotalCount int       `json:"total_count"`
	Mentions   []Mention `json:"mentions"`
}

// SentimentResult is the full output shape of every sentiment tier
type SentimentResult struct {
	Sentiment           string   `json:"sentiment"`
	Confidence          float64  `json:"confidence"`
	Reasoning           string   `json:"reasoning"`
	EmotionalCategories []string `json:"emotional_categories"`
	Intensity           string   `json:"intensity"`
	ContextAwareness    string   `json:"context_awareness"`
	Method              string   `json:"method"`
	TextLength          int      `json:"text_length"`
	Timestamp           string   `json:"timestamp"`
}

// SentimentSummary aggregates a batch of sentiment results
type SentimentSummary struct {
	Total               int            `json:"total"`
	Positive            int            `json:"positive"`
	Negative            int            `json:"negative"`
	Neutral             int            `json:"neutral"`
	PositivePercent     float64        `json:"positive_percent"`
	NegativePercent     float64        `json:"negative_percent"`
	NeutralPercent      float64        `json:"neutral_percent"`
	AvgConfidence       float64        `json:"avg_confidence"`
	EmotionDistribution map[string]int `json:"emotion_distribution"`
	HighConfidenceCount int            `json:"high_confidence_count"`
}

// Provenance tags a metric as measured or inferred
type Provenance string

const (
	ProvenanceReal      Provenance = "real"
	ProvenanceEstimated Provenance = "estimated"
)

// MetricsSummary is the attribution signal set derived from mentions
type MetricsSummary struct {
	BrandedSearchVolume int     `json:"branded_search_volume"`
	DirectTraffic       int     `json:"direct_traffic"`
	InboundMessages     int     `json:"inbound_messages"`
	CommunityEngagement int     `json:"community_engagement"`
	FirstPartyData      int     `json:"first_party_data"`
	AttributionScore    float64 `json:"attribution_score"`

	TotalMentions    int    `json:"total_mentions"`
	PositiveMentions int    `json:"positive_mentions"`
	DaysAnalyzed     int    `json:"days_analyzed"`
	DataSource       string `json:"data_source"` // "ga4" or "estimated"
	LastUpdated      string `json:"last_updated"`

	Provenance  map[string]Provenance `json:"provenance"`
	DataSources map[string]string     `json:"data_sources"`
}

// RefreshResult describes one orchestrator run
type RefreshResult struct {
	RunID             string            `json:"run_id"`
	Mentions          []Mention         `json:"data"`
	TotalCount        int               `json:"total_count"`
	PlatformsSearched []string          `json:"platforms_searched"`
	SourceCounts      map[string]int    `json:"source_counts"`
	SourceErrors      map[string]string `json:"source_errors,omitempty"`
	Cached            bool              `json:"cached"`
	Duration          string            `json:"duration"`
}

// Report represents a refresh report sent through notification channels
type Report struct {
	GeneratedAt   time.Time              `json:"generated_at"`
	Period        string                 `json:"period"`
	BrandName     string                 `json:"brand_name"`
	TotalMentions int                    `json:"total_mentions"`
	Mentions      []Mention              `json:"mentions"`
	Summary       map[string]interface{} `json:"summary"`
}

// Alert represents an urgent notification
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "critical", "urgent", "info"
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Mention   *Mention  `json:"mention,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
