package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Format selects a writer
type Format string

const (
	FormatCSV       Format = "csv"
	FormatJSON      Format = "json"
	FormatDashboard Format = "dashboard"
)

const maxContentLength = 500

// Columns is the fixed header of the detailed CSV export
var Columns = []string{
	"id", "platform", "source", "content_type", "content", "title", "author", "author_username", "author_id",
	"subreddit", "created_at", "url", "likes", "shares", "comments", "plays", "views",
	"score", "ups", "downs", "upvote_ratio", "video_duration", "hashtags", "thumbnail",
	"sentiment", "relevance_score", "extracted_at",
}

// ParseFormat accepts csv, json or dashboard, case-insensitively
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatCSV, FormatJSON, FormatDashboard:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", errors.Errorf("unknown export format %q", value)
	}
}

// ContentType is the MIME type of the given format
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// Extension is the file name extension of the given format
func (f Format) Extension() string {
	if f == FormatJSON {
		return "json"
	}
	return "csv"
}

// Write dispatches to the writer for format
func Write(w io.Writer, format Format, mentions []models.Mention) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, mentions)
	case FormatJSON:
		return WriteJSON(w, mentions)
	case FormatDashboard:
		return WriteDashboardCSV(w, mentions)
	default:
		return errors.Errorf("unknown export format %q", format)
	}
}

// WriteCSV writes one row per mention under the fixed Columns header.
// Content has newlines removed and is cut to 500 characters.
func WriteCSV(w io.Writer, mentions []models.Mention) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Columns); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for _, m := range mentions {
		if err := writer.Write(row(m)); err != nil {
			return errors.Wrapf(err, "failed to write mention %s", m.ID)
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush CSV")
}

func row(m models.Mention) []string {
	content := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(m.Content)
	if runes := []rune(content); len(runes) > maxContentLength {
		content = string(runes[:maxContentLength])
	}

	return []string{
		m.ID,
		string(m.Platform),
		m.Source,
		m.ContentType,
		content,
		m.Title,
		m.Author,
		m.AuthorUsername,
		m.AuthorID,
		m.Subreddit,
		m.CreatedAt,
		m.URL,
		number(m.Engagement.Get("likes")),
		number(m.Engagement.Get("shares")),
		number(m.Engagement.Get("comments")),
		number(m.Engagement.Get("plays")),
		number(m.Engagement.Get("views")),
		number(m.Engagement.Get("score")),
		number(m.Engagement.Get("ups")),
		number(m.Engagement.Get("downs")),
		number(m.Engagement.Get("upvote_ratio")),
		number(m.VideoDuration),
		strings.Join(m.Hashtags, ", "),
		m.Thumbnail,
		m.Sentiment,
		number(m.RelevanceScore),
		m.ExtractedAt,
	}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteJSON writes mentions as an indented JSON array
func WriteJSON(w io.Writer, mentions []models.Mention) error {
	if mentions == nil {
		mentions = []models.Mention{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return errors.Wrap(encoder.Encode(mentions), "failed to encode mentions")
}

// DailyCount is one row of the dashboard export
type DailyCount struct {
	Date     string
	Mentions int
}

// DailyCounts groups mentions by UTC creation date, ascending. Unparsable dates are skipped.
func DailyCounts(mentions []models.Mention) []DailyCount {
	counts := make(map[string]int)
	for _, m := range mentions {
		created, ok := m.CreatedTime()
		if !ok {
			continue
		}
		counts[created.UTC().Format("2006-01-02")]++
	}

	days := make([]DailyCount, 0, len(counts))
	for date, n := range counts {
		days = append(days, DailyCount{Date: date, Mentions: n})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// WriteDashboardCSV writes the date,mentions daily counts
func WriteDashboardCSV(w io.Writer, mentions []models.Mention) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"date", "mentions"}); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	for _, day := range DailyCounts(mentions) {
		if err := writer.Write([]string{day.Date, strconv.Itoa(day.Mentions)}); err != nil {
			return errors.Wrapf(err, "failed to write %s", day.Date)
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush CSV")
}
