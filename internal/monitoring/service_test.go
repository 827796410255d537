package monitoring

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/cache"
	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/sources"
	"github.com/attribution-dashboard/brand-mentions/internal/storage"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotificationService is a mock implementation of the notification service
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) SendReport(report *models.Report) error {
	args := m.Called(report)
	return args.Error(0)
}

func (m *MockNotificationService) SendAlert(alert *models.Alert) error {
	args := m.Called(alert)
	return args.Error(0)
}

// fakeSource serves a fixed page of items, or fails every request
type fakeSource struct {
	name     string
	platform models.Platform
	enabled  bool
	items    []sources.RawItem
	err      error
	panics   bool
}

func (f *fakeSource) GetName() string                     { return f.name }
func (f *fakeSource) GetPlatform() models.Platform        { return f.platform }
func (f *fakeSource) IsEnabled() bool                     { return f.enabled }
func (f *fakeSource) QueryVariants(brand string) []string { return []string{brand} }

func (f *fakeSource) Fetch(_ context.Context, req sources.Request) (*sources.Page, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &sources.Page{Items: f.items}, nil
}

func tikTokItem(t *testing.T, id, desc string, created time.Time) sources.RawItem {
	t.Helper()

	data, err := json.Marshal(map[string]interface{}{
		"aweme_info": map[string]interface{}{
			"aweme_id":    id,
			"desc":        desc,
			"create_time": created.Unix(),
			"author":      map[string]interface{}{"unique_id": "creator", "nickname": "Creator"},
		},
	})
	require.NoError(t, err)

	return sources.RawItem{Provider: models.SourceTikTok, ContentType: "video", Query: "Acme", Data: data}
}

func newTestConfig() *config.Config {
	return &config.Config{
		BrandName:               "Acme",
		Platforms:               []string{"tiktok", "youtube", "reddit", "web"},
		EnableSentimentAnalysis: true,
		MaxResults:              10,
		WebMaxResults:           5,
		DaysBack:                7,
		RelevanceThreshold:      0.3,
		CacheMaxAge:             time.Hour,
	}
}

func newTestService(t *testing.T, cfg *config.Config, notifier *MockNotificationService, srcs ...sources.Source) (*Service, *cache.Store) {
	t.Helper()

	store := cache.New(storage.NewMemoryStorage(), "")
	factory := func(config.Credentials) []sources.Source { return srcs }

	var svc *Service
	if notifier != nil {
		svc = NewService(cfg, store, notifier, WithSourceFactory(factory))
	} else {
		svc = NewService(cfg, store, nil, WithSourceFactory(factory))
	}
	return svc, store
}

func TestService_RefreshMergesSortsAndCaches(t *testing.T) {
	now := time.Now()
	tiktok := &fakeSource{
		name:     models.SourceTikTok,
		platform: models.PlatformShortVideo,
		enabled:  true,
		items: []sources.RawItem{
			tikTokItem(t, "1", "I love Acme, it is amazing and great", now.Add(-48*time.Hour)),
			tikTokItem(t, "2", "Acme unboxing", now.Add(-2*time.Hour)),
			tikTokItem(t, "2", "Acme unboxing", now.Add(-2*time.Hour)),
			tikTokItem(t, "3", "Acme throwback", now.Add(-30*24*time.Hour)),
		},
	}

	svc, store := newTestService(t, newTestConfig(), nil, tiktok)

	result, err := svc.Refresh(context.Background(), RefreshRequest{})
	require.NoError(t, err)

	require.Len(t, result.Mentions, 2, "duplicate and out-of-window mentions are dropped")
	assert.Equal(t, "2", result.Mentions[0].ID, "newest first")
	assert.Equal(t, "1", result.Mentions[1].ID)
	assert.Equal(t, models.SentimentPositive, result.Mentions[1].Sentiment)
	assert.NotEmpty(t, result.Mentions[1].SentimentMethod)
	assert.Greater(t, result.Mentions[0].RelevanceScore, 0.0)
	assert.True(t, result.Cached)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{models.SourceTikTok}, result.PlatformsSearched)
	assert.Empty(t, result.SourceErrors)

	snapshot, err := store.Read(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.TotalCount)
	assert.Equal(t, "Acme", snapshot.BrandName)

	metrics := svc.GetRunMetrics()
	assert.Equal(t, 2, metrics.TotalMentions)
	assert.Equal(t, 1, metrics.Runs)
	assert.Equal(t, result.RunID, metrics.LastRunID)
	assert.Equal(t, 2, metrics.SourceMetrics[models.SourceTikTok])
}

func TestService_RefreshSentimentDisabled(t *testing.T) {
	cfg := newTestConfig()
	cfg.EnableSentimentAnalysis = false
	tiktok := &fakeSource{
		name:     models.SourceTikTok,
		platform: models.PlatformShortVideo,
		enabled:  true,
		items:    []sources.RawItem{tikTokItem(t, "1", "I love Acme, it is amazing and great", time.Now())},
	}

	svc, _ := newTestService(t, cfg, nil, tiktok)

	result, err := svc.Refresh(context.Background(), RefreshRequest{})
	require.NoError(t, err)
	require.Len(t, result.Mentions, 1)
	assert.Equal(t, models.SentimentNeutral, result.Mentions[0].Sentiment)
}

func TestService_RefreshIsolatesSourceFailures(t *testing.T) {
	tiktok := &fakeSource{
		name:     models.SourceTikTok,
		platform: models.PlatformShortVideo,
		enabled:  true,
		items:    []sources.RawItem{tikTokItem(t, "1", "Acme", time.Now())},
	}
	youtube := &fakeSource{name: models.SourceYouTube, platform: models.PlatformShortVideo, enabled: true, err: errors.New("status 500")}
	reddit := &fakeSource{name: models.SourceReddit, platform: models.PlatformForum, enabled: true, panics: true}
	exa := &fakeSource{name: models.SourceExa, platform: models.PlatformWeb, enabled: false}

	svc, _ := newTestService(t, newTestConfig(), nil, tiktok, youtube, reddit, exa)

	result, err := svc.Refresh(context.Background(), RefreshRequest{})
	require.NoError(t, err)

	assert.Len(t, result.Mentions, 1)
	assert.ElementsMatch(t, []string{"tiktok", "youtube", "reddit"}, result.PlatformsSearched)
	assert.Contains(t, result.SourceErrors, "youtube")
	assert.Contains(t, result.SourceErrors, "reddit")
	assert.NotContains(t, result.SourceErrors, "tiktok")
	assert.Equal(t, 0, result.SourceCounts["youtube"])
}

func TestService_RefreshPlatformFilter(t *testing.T) {
	tiktok := &fakeSource{name: models.SourceTikTok, platform: models.PlatformShortVideo, enabled: true}
	reddit := &fakeSource{name: models.SourceReddit, platform: models.PlatformForum, enabled: true}
	exa := &fakeSource{name: models.SourceExa, platform: models.PlatformWeb, enabled: true}

	tests := []struct {
		name     string
		platform string
		expected []string
	}{
		{"All", "all", []string{"tiktok", "reddit", "exa"}},
		{"By name", "reddit", []string{"reddit"}},
		{"By platform kind", "web", []string{"exa"}},
		{"Unknown", "myspace", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, newTestConfig(), nil, tiktok, reddit, exa)

			result, err := svc.Refresh(context.Background(), RefreshRequest{Platform: tt.platform})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.expected, result.PlatformsSearched)
			assert.True(t, result.Cached, "the cache is overwritten even with zero mentions")
		})
	}
}

func TestService_RefreshAlertsWhenEverySourceFails(t *testing.T) {
	notifier := &MockNotificationService{}
	notifier.On("SendAlert", mock.MatchedBy(func(a *models.Alert) bool {
		return a.Type == "critical" && a.ID != ""
	})).Return(nil).Once()

	youtube := &fakeSource{name: models.SourceYouTube, platform: models.PlatformShortVideo, enabled: true, err: errors.New("down")}
	svc, _ := newTestService(t, newTestConfig(), notifier, youtube)

	_, err := svc.Refresh(context.Background(), RefreshRequest{})
	require.NoError(t, err)

	notifier.AssertExpectations(t)
}

func TestService_Mentions(t *testing.T) {
	now := time.Now()
	cfg := newTestConfig()
	svc, store := newTestService(t, cfg, nil)

	t.Run("No snapshot", func(t *testing.T) {
		result := svc.Mentions(context.Background(), MentionsQuery{})
		assert.Equal(t, "empty", result.Source)
		assert.Equal(t, EmptyCacheMessage, result.Message)
		assert.Empty(t, result.Mentions)
	})

	require.True(t, store.Write(context.Background(), []models.Mention{
		{ID: "1", Source: models.SourceTikTok, Platform: models.PlatformShortVideo, CreatedAt: models.FormatTimestamp(now.Add(-time.Hour))},
		{ID: "2", Source: models.SourceExa, Platform: models.PlatformWeb, CreatedAt: models.FormatTimestamp(now.Add(-2 * time.Hour))},
		{ID: "3", Source: models.SourceReddit, Platform: models.PlatformForum, CreatedAt: models.FormatTimestamp(now.Add(-5 * 24 * time.Hour))},
	}, "Acme"))

	tests := []struct {
		name     string
		query    MentionsQuery
		expected []string
	}{
		{"All", MentionsQuery{Platform: "all"}, []string{"1", "2", "3"}},
		{"Web", MentionsQuery{Platform: "web"}, []string{"2"}},
		{"Provider", MentionsQuery{Platform: "tiktok"}, []string{"1"}},
		{"Days back", MentionsQuery{DaysBack: 2}, []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.Mentions(context.Background(), tt.query)

			var ids []string
			for _, m := range result.Mentions {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.expected, ids)
			assert.Equal(t, "cache", result.Source)
			assert.Equal(t, len(tt.expected), result.TotalCount)
			assert.NotEmpty(t, result.CacheTimestamp)
		})
	}

	t.Run("Force refresh", func(t *testing.T) {
		result := svc.Mentions(context.Background(), MentionsQuery{ForceRefresh: true})
		assert.Equal(t, "empty", result.Source)
		assert.Empty(t, result.Mentions)
	})
}

func TestSortNewestFirst(t *testing.T) {
	mentions := []models.Mention{
		{ID: "old", CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "bad", CreatedAt: "yesterday-ish"},
		{ID: "new", CreatedAt: "2024-03-01T00:00:00Z"},
	}

	SortNewestFirst(mentions)

	assert.Equal(t, "new", mentions[0].ID)
	assert.Equal(t, "old", mentions[1].ID)
	assert.Equal(t, "bad", mentions[2].ID)
}

func TestService_GenerateReport(t *testing.T) {
	svc, _ := newTestService(t, newTestConfig(), nil)

	var mentions []models.Mention
	for i, source := range []string{"reddit", "reddit", "tiktok", "exa", "reddit", "tiktok"} {
		mentions = append(mentions, models.Mention{
			ID:        fmt.Sprint(i),
			Source:    source,
			Sentiment: models.SentimentNeutral,
		})
	}

	report := svc.GenerateReport(mentions, "last 7 days")

	assert.Equal(t, "Acme", report.BrandName)
	assert.Equal(t, 6, report.TotalMentions)
	assert.Equal(t, []string{"reddit (3)", "tiktok (2)", "exa (1)"}, report.Summary["top_sources"])
	assert.Equal(t, map[string]int{"neutral": 6}, report.Summary["sentiment"])
}

func TestService_RunScheduledRefreshSendsReport(t *testing.T) {
	notifier := &MockNotificationService{}
	notifier.On("SendReport", mock.AnythingOfType("*models.Report")).Return(nil).Once()

	tiktok := &fakeSource{
		name:     models.SourceTikTok,
		platform: models.PlatformShortVideo,
		enabled:  true,
		items:    []sources.RawItem{tikTokItem(t, "1", "Acme", time.Now())},
	}
	svc, _ := newTestService(t, newTestConfig(), notifier, tiktok)

	require.NoError(t, svc.RunScheduledRefresh(context.Background()))
	notifier.AssertExpectations(t)
}

func TestService_SentimentKeepsOnlyEnvironmentChain(t *testing.T) {
	cfg := newTestConfig()
	cfg.OpenRouterAPIKey = "env-key"
	svc, _ := newTestService(t, cfg, nil)

	env := svc.Sentiment(config.Credentials{OpenRouterKey: "env-key"})
	assert.Same(t, env, svc.Sentiment(config.Credentials{OpenRouterKey: "env-key"}))

	for i := 0; i < 50; i++ {
		creds := config.Credentials{OpenRouterKey: fmt.Sprintf("k-%d", i)}
		chain := svc.Sentiment(creds)
		assert.True(t, chain.AIEnabled())
		assert.NotSame(t, env, chain)
		assert.NotSame(t, chain, svc.Sentiment(creds))
	}

	assert.Same(t, env, svc.envChain)
	assert.False(t, svc.Sentiment(config.Credentials{}).AIEnabled())
}
