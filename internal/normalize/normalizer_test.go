package normalize

import (
	"testing"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/sources"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func rawItem(provider, contentType, payload string) sources.RawItem {
	return sources.RawItem{
		Provider:    provider,
		ContentType: contentType,
		Query:       "Acme",
		Data:        json.RawMessage(payload),
	}
}

func testContext() Context {
	return Context{Brand: "Acme", Now: testNow}
}

func TestNormalize_DropsItemsWithoutID(t *testing.T) {
	tests := []struct {
		name string
		item sources.RawItem
	}{
		{
			name: "TikTok without aweme id",
			item: rawItem(models.SourceTikTok, "", `{"aweme_info":{"desc":"Acme rocks"}}`),
		},
		{
			name: "YouTube with blank id",
			item: rawItem(models.SourceYouTube, "video", `{"id":"  ","title":"Acme"}`),
		},
		{
			name: "Reddit without id",
			item: rawItem(models.SourceReddit, "", `{"title":"Acme"}`),
		},
		{
			name: "Exa without id or url",
			item: rawItem(models.SourceExa, "", `{"title":"Acme"}`),
		},
		{
			name: "Malformed payload",
			item: rawItem(models.SourceReddit, "", `[1,2,3]`),
		},
		{
			name: "Unknown provider",
			item: rawItem("myspace", "", `{"id":"1"}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Normalize(tt.item, testContext()))
		})
	}
}

func TestNormalize_KeepsSourceIDExactly(t *testing.T) {
	tests := []struct {
		name string
		item sources.RawItem
		id   string
	}{
		{name: "TikTok", item: rawItem(models.SourceTikTok, "", `{"aweme_info":{"aweme_id":"7301"}}`), id: "7301"},
		{name: "TikTok numeric id", item: rawItem(models.SourceTikTok, "", `{"aweme_info":{"aweme_id":7301}}`), id: "7301"},
		{name: "YouTube", item: rawItem(models.SourceYouTube, "short", `{"id":"dQw4w9WgXcQ"}`), id: "dQw4w9WgXcQ"},
		{name: "Reddit", item: rawItem(models.SourceReddit, "", `{"id":"1abcde"}`), id: "1abcde"},
		{name: "Exa falls back to url", item: rawItem(models.SourceExa, "", `{"url":"https://blog.example.com/acme"}`), id: "https://blog.example.com/acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mention := Normalize(tt.item, testContext())
			require.NotNil(t, mention)
			assert.Equal(t, tt.id, mention.ID)
			assert.Equal(t, models.SentimentNeutral, mention.Sentiment)
			_, ok := mention.CreatedTime()
			assert.True(t, ok, "created_at must always be a valid timestamp")
			_, ok = models.ParseTimestamp(mention.ExtractedAt)
			assert.True(t, ok)
		})
	}
}

func TestNormalizeTikTok(t *testing.T) {
	payload := `{
		"aweme_info": {
			"aweme_id": "7301",
			"desc": "Loving my new Acme gadget #acme",
			"create_time": 1715342400,
			"author": {"unique_id": "gadgetfan", "nickname": "Gadget Fan"},
			"statistics": {"digg_count": 120, "share_count": "7", "comment_count": null, "play_count": "n/a"},
			"video": {"duration": 15500},
			"text_extra": [{"type": 1, "hashtag_name": "acme"}, {"type": 0, "user_id": "1"}]
		}
	}`

	mention := Normalize(rawItem(models.SourceTikTok, "video", payload), testContext())
	require.NotNil(t, mention)

	assert.Equal(t, models.PlatformShortVideo, mention.Platform)
	assert.Equal(t, models.SourceTikTok, mention.Source)
	assert.Equal(t, "Gadget Fan", mention.Author)
	assert.Equal(t, "gadgetfan", mention.AuthorUsername)
	assert.Equal(t, "https://www.tiktok.com/@gadgetfan/video/7301", mention.URL)
	assert.Equal(t, "2024-05-10T12:00:00Z", mention.CreatedAt)
	assert.False(t, mention.DateEstimated)
	assert.Equal(t, 120.0, mention.Engagement.Get("likes"))
	assert.Equal(t, 7.0, mention.Engagement.Get("shares"))
	assert.Equal(t, 0.0, mention.Engagement.Get("comments"))
	assert.Equal(t, 0.0, mention.Engagement.Get("plays"))
	assert.Contains(t, mention.Engagement, "plays")
	assert.Equal(t, 15.5, mention.VideoDuration)
	assert.Equal(t, []string{"#acme"}, mention.Hashtags)
}

func TestNormalizeTikTok_MissingAuthorLeavesURLEmpty(t *testing.T) {
	mention := Normalize(rawItem(models.SourceTikTok, "", `{"aweme_info":{"aweme_id":"9"}}`), testContext())
	require.NotNil(t, mention)

	assert.Empty(t, mention.URL)
	assert.Equal(t, "Unknown", mention.Author)
	assert.Equal(t, models.FormatTimestamp(testNow), mention.CreatedAt)
	assert.True(t, mention.DateEstimated)
}

func TestNormalizeYouTube(t *testing.T) {
	payload := `{
		"id": "abc123",
		"title": "Acme &amp; friends review",
		"publishedTime": "2024-05-01T08:30:00Z",
		"viewCountInt": 5400,
		"lengthSeconds": "312",
		"thumbnail": "https://i.ytimg.com/vi/abc123/hq.jpg",
		"channel": {"id": "UC1", "title": "Reviews Inc", "handle": "@reviewsinc"}
	}`

	mention := Normalize(rawItem(models.SourceYouTube, "short", payload), testContext())
	require.NotNil(t, mention)

	assert.Equal(t, "short", mention.ContentType)
	assert.Equal(t, "Acme & friends review", mention.Title)
	assert.Equal(t, mention.Title, mention.Content)
	assert.Equal(t, "reviewsinc", mention.AuthorUsername)
	assert.Equal(t, "UC1", mention.AuthorID)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", mention.URL)
	assert.Equal(t, "2024-05-01T08:30:00Z", mention.CreatedAt)
	assert.Equal(t, 5400.0, mention.Engagement.Get("views"))
	assert.Equal(t, 312.0, mention.VideoDuration)
}

func TestNormalizeYouTube_RelativePublishedText(t *testing.T) {
	payload := `{"id": "abc123", "publishedTimeText": "3 days ago"}`

	mention := Normalize(rawItem(models.SourceYouTube, "video", payload), testContext())
	require.NotNil(t, mention)

	assert.Equal(t, "2024-05-07T12:00:00Z", mention.CreatedAt)
	assert.False(t, mention.DateEstimated)
}

func TestNormalizeReddit(t *testing.T) {
	payload := `{
		"id": "1abcde",
		"subreddit": "gadgets",
		"author": "redditor",
		"permalink": "/r/gadgets/comments/1abcde/acme/",
		"created_utc": 1715342400.0,
		"title": "Acme review after a month",
		"selftext": "It is **great**, see [the site](https://acme.example.com)",
		"score": 42, "ups": 45, "downs": 3, "num_comments": 12, "upvote_ratio": 0.93,
		"is_self": true
	}`

	mention := Normalize(rawItem(models.SourceReddit, "post", payload), testContext())
	require.NotNil(t, mention)

	assert.Equal(t, models.PlatformForum, mention.Platform)
	assert.Equal(t, "text", mention.ContentType)
	assert.Equal(t, "Acme review after a month\nIt is great, see the site", mention.Content)
	assert.Equal(t, "https://www.reddit.com/r/gadgets/comments/1abcde/acme/", mention.URL)
	assert.Equal(t, "gadgets", mention.Subreddit)
	assert.Equal(t, 42.0, mention.Engagement.Get("score"))
	assert.Equal(t, 0.93, mention.Engagement.Get("upvote_ratio"))
	assert.Equal(t, 12.0, mention.Engagement.Get("comments"))
}

func TestNormalizeReddit_LinkPostFallsBackToURL(t *testing.T) {
	payload := `{"id": "x1", "title": "Acme launch", "url": "https://news.example.com/acme", "is_self": false}`

	mention := Normalize(rawItem(models.SourceReddit, "post", payload), testContext())
	require.NotNil(t, mention)

	assert.Equal(t, "link", mention.ContentType)
	assert.Equal(t, "Acme launch", mention.Content)
	assert.Equal(t, "https://news.example.com/acme", mention.URL)
}

func TestNormalizeExa(t *testing.T) {
	payload := `{
		"id": "exa-1",
		"url": "https://www.example.com/blog/acme-vs-globex",
		"title": "Acme vs Globex",
		"text": "<p>We tried Acme for a month. Contact sales@acme.example.com for pricing.</p>",
		"publishedDate": "2024-05-02T00:00:00.000Z",
		"author": "Jane Writer"
	}`

	mention := Normalize(rawItem(models.SourceExa, "", payload), testContext())
	require.NotNil(t, mention)

	assert.Equal(t, models.PlatformWeb, mention.Platform)
	assert.Equal(t, "www.example.com", mention.Domain)
	assert.Equal(t, ContentBlogArticle, mention.ContentType)
	assert.Equal(t, "We tried Acme for a month. Contact sales@acme.example.com for pricing.", mention.Content)
	assert.True(t, mention.HasContactInfo)
	assert.Contains(t, mention.MentionContext, "tried Acme")
	assert.Equal(t, "2024-05-02T00:00:00Z", mention.CreatedAt)
	assert.Empty(t, mention.Engagement)
}

func TestNormalizeAll_CountsDrops(t *testing.T) {
	items := []sources.RawItem{
		rawItem(models.SourceReddit, "", `{"id":"a"}`),
		rawItem(models.SourceReddit, "", `{"title":"no id"}`),
		rawItem(models.SourceTikTok, "", `{"aweme_info":{"aweme_id":"b"}}`),
	}

	mentions, dropped := NormalizeAll(items, testContext())

	assert.Len(t, mentions, 2)
	assert.Equal(t, 1, dropped)
}
