package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMentions() []models.Mention {
	return []models.Mention{
		{
			ID:             "t1",
			Platform:       models.PlatformShortVideo,
			Source:         models.SourceTikTok,
			ContentType:    "video",
			Content:        "line one\nline two, with comma",
			Title:          "line one",
			Author:         "Creator",
			CreatedAt:      "2024-05-09T10:00:00Z",
			URL:            "https://www.tiktok.com/@creator/video/t1",
			Engagement:     models.Engagement{"likes": 12, "plays": 1500},
			Hashtags:       []string{"#acme", "#review"},
			Sentiment:      models.SentimentPositive,
			VideoDuration:  15.5,
			RelevanceScore: 0.8,
		},
		{
			ID:         "r1",
			Platform:   models.PlatformForum,
			Source:     models.SourceReddit,
			Subreddit:  "acme",
			Content:    strings.Repeat("x", 600),
			CreatedAt:  "2024-05-09T23:59:00Z",
			Engagement: models.Engagement{"score": 42, "upvote_ratio": 0.97},
		},
		{
			ID:        "w1",
			Platform:  models.PlatformWeb,
			Source:    models.SourceExa,
			CreatedAt: "2024-05-07T08:00:00Z",
		},
		{ID: "bad", CreatedAt: "not a date"},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleMentions()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, Columns, records[0])

	col := func(name string) int {
		for i, c := range Columns {
			if c == name {
				return i
			}
		}
		t.Fatalf("no column %s", name)
		return -1
	}

	tiktok := records[1]
	assert.Equal(t, "line one line two, with comma", tiktok[col("content")])
	assert.Equal(t, "12", tiktok[col("likes")])
	assert.Equal(t, "1500", tiktok[col("plays")])
	assert.Equal(t, "0", tiktok[col("shares")])
	assert.Equal(t, "#acme, #review", tiktok[col("hashtags")])
	assert.Equal(t, "15.5", tiktok[col("video_duration")])
	assert.Equal(t, "0.8", tiktok[col("relevance_score")])

	reddit := records[2]
	assert.Len(t, reddit[col("content")], 500)
	assert.Equal(t, "acme", reddit[col("subreddit")])
	assert.Equal(t, "0.97", reddit[col("upvote_ratio")])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleMentions()[:1]))

	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {"))

	var decoded []models.Mention
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "t1", decoded[0].ID)

	buf.Reset()
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteDashboardCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDashboardCSV(&buf, sampleMentions()))

	assert.Equal(t, "date,mentions\n2024-05-07,1\n2024-05-09,2\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
		wantErr  bool
	}{
		{"csv", FormatCSV, false},
		{"JSON", FormatJSON, false},
		{" dashboard ", FormatDashboard, false},
		{"", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			format, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestWrite_Dispatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatDashboard, nil))
	assert.Equal(t, "date,mentions\n", buf.String())

	assert.Error(t, Write(&buf, Format("xml"), nil))
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Equal(t, "csv", FormatDashboard.Extension())
}
