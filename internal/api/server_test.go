package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/cache"
	"github.com/attribution-dashboard/brand-mentions/internal/config"
	"github.com/attribution-dashboard/brand-mentions/internal/metrics"
	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/monitoring"
	"github.com/attribution-dashboard/brand-mentions/internal/sources"
	"github.com/attribution-dashboard/brand-mentions/internal/storage"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns one TikTok item per fetch when a key is present
type stubSource struct {
	key string
}

func (s *stubSource) GetName() string                     { return models.SourceTikTok }
func (s *stubSource) GetPlatform() models.Platform        { return models.PlatformShortVideo }
func (s *stubSource) IsEnabled() bool                     { return s.key != "" }
func (s *stubSource) QueryVariants(brand string) []string { return []string{brand} }

func (s *stubSource) Fetch(_ context.Context, req sources.Request) (*sources.Page, error) {
	data, _ := json.Marshal(map[string]interface{}{
		"aweme_info": map[string]interface{}{
			"aweme_id":    "v1",
			"desc":        "Trying Acme for the first time, I love it and it is great",
			"create_time": time.Now().Add(-time.Hour).Unix(),
			"author":      map[string]interface{}{"unique_id": "creator"},
		},
	})
	return &sources.Page{Items: []sources.RawItem{{Provider: models.SourceTikTok, Query: req.Query, Data: data}}}, nil
}

type testEnv struct {
	router http.Handler
	cfg    *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		BrandName:               "Acme",
		Platforms:               []string{"tiktok", "youtube", "reddit", "web"},
		EnableSentimentAnalysis: true,
		MaxResults:              10,
		WebMaxResults:           5,
		DaysBack:                7,
		RelevanceThreshold:      0.3,
		CacheMaxAge:             time.Hour,
		RefreshTimeout:          10 * time.Second,
	}
	store := cache.New(storage.NewMemoryStorage(), "")
	factory := func(creds config.Credentials) []sources.Source {
		return []sources.Source{&stubSource{key: creds.ScrapeCreatorsKey}}
	}
	svc := monitoring.NewService(cfg, store, nil, monitoring.WithSourceFactory(factory))
	server := NewServer(cfg, svc, store, metrics.NewAggregator(metrics.Estimates{}), nil)

	return &testEnv{router: server.Router(), cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, target string, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var payload map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", payload["status"])
}

func TestMentions_EmptyCache(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodGet, "/mentions", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "empty", payload["source"])
	assert.Equal(t, monitoring.EmptyCacheMessage, payload["message"])
	assert.Equal(t, []interface{}{}, payload["data"])
}

func TestMentions_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		target string
	}{
		{"Non numeric days", "/mentions?days_back=week"},
		{"Days out of range", "/mentions?days_back=0"},
		{"Unknown platform", "/mentions?platform=myspace"},
		{"Bad force refresh", "/mentions?force_refresh=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, payload := env.do(t, http.MethodGet, tt.target, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", payload["status"])
			assert.NotEmpty(t, payload["message"])
		})
	}
}

func TestRefreshThenServeFromCache(t *testing.T) {
	env := newTestEnv(t)
	headers := map[string]string{HeaderScrapeCreatorsKey: "sc-key"}

	rec, payload := env.do(t, http.MethodPost, "/refresh?platform=tiktok", `{"days_back": 3}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, "live_api", payload["source"])
	assert.Equal(t, true, payload["cached"])
	assert.Equal(t, float64(1), payload["total_count"])

	rec, payload = env.do(t, http.MethodGet, "/mentions?platform=tiktok", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cache", payload["source"])
	data := payload["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "positive", data[0].(map[string]interface{})["sentiment"])

	rec, payload = env.do(t, http.MethodGet, "/mentions?force_refresh=true", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "empty", payload["source"])

	rec, payload = env.do(t, http.MethodGet, "/cache-status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["cached"])
	assert.Equal(t, false, payload["is_stale"])
	assert.Equal(t, float64(1), payload["total_mentions"])

	rec, payload = env.do(t, http.MethodGet, "/run-metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	metrics := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(1), metrics["total_mentions"])

	rec, payload = env.do(t, http.MethodGet, "/metrics?days_back=7", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := payload["data"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["total_mentions"])
	assert.Equal(t, float64(1), summary["community_engagement"])
	assert.Equal(t, "estimated", summary["data_source"])
}

func TestRefresh_WithoutCredentialsSearchesNothing(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodPost, "/refresh", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), payload["total_count"])
	assert.Equal(t, []interface{}{}, payload["platforms_searched"])
}

func TestRefresh_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodPost, "/refresh", `{"days_back":`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", payload["status"])
}

func TestCacheStatus_NoCache(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodGet, "/cache-status", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, payload["cached"])
	assert.Equal(t, "No cache file exists", payload["message"])
}

func TestSentiment(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodPost, "/sentiment", `{"text":"This is terrible, broken and awful","platform":"reddit"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := payload["data"].(map[string]interface{})
	assert.Equal(t, "negative", result["sentiment"])
	assert.Equal(t, "rule_based_fallback", result["method"])

	rec, payload = env.do(t, http.MethodPost, "/sentiment", `{"text":"   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, payload["message"], "No text provided")
}

func TestSentimentBatch(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodPost, "/sentiment/batch", `{"texts":["love it, amazing, great","", "fine"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["data"], 3)
	summary := payload["summary"].(map[string]interface{})
	assert.Equal(t, float64(3), summary["total"])
	assert.Equal(t, float64(1), summary["positive"])

	rec, _ = env.do(t, http.MethodPost, "/sentiment/batch", `{"texts":[]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSentimentConfigAndBrandConfig(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodGet, "/sentiment-config", "", map[string]string{HeaderOpenRouterKey: "or-key"})
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := payload["data"].(map[string]interface{})
	assert.Equal(t, "enhanced", cfg["status"])
	assert.Equal(t, true, cfg["enabled"])

	rec, payload = env.do(t, http.MethodGet, "/brand-config", "", map[string]string{HeaderExaKey: "exa-key"})
	require.Equal(t, http.StatusOK, rec.Code)
	brand := payload["data"].(map[string]interface{})
	assert.Equal(t, "Acme", brand["brand_name"])
	apis := brand["configured_apis"].(map[string]interface{})
	assert.Equal(t, true, apis["exa_search"])
	assert.Equal(t, false, apis["scrape_creators"])
}

func TestExport(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.do(t, http.MethodPost, "/refresh", "", map[string]string{HeaderScrapeCreatorsKey: "sc-key"})

	rec, _ := env.do(t, http.MethodGet, "/export?format=csv", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"mentions_")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,platform,source,"))

	rec, _ = env.do(t, http.MethodGet, "/export?format=dashboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "date,mentions\n"))

	rec, payload := env.do(t, http.MethodGet, "/export?format=xml", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "error", payload["status"])
}

func TestRouting_NotFoundAndMethod(t *testing.T) {
	env := newTestEnv(t)

	rec, payload := env.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", payload["status"])

	rec, _ = env.do(t, http.MethodGet, "/refresh", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoverMiddleware(t *testing.T) {
	handler := recoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "error", payload["status"])
}

func TestValidationError(t *testing.T) {
	err := newValidation("days_back", "must be an integer")
	assert.Equal(t, "invalid days_back: must be an integer", err.Error())
	assert.Equal(t, "plain", (&ValidationError{Reason: "plain"}).Error())
}
