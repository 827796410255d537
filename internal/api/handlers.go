package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/export"
	"github.com/attribution-dashboard/brand-mentions/internal/monitoring"
	"github.com/attribution-dashboard/brand-mentions/internal/sentiment"
	"github.com/sirupsen/logrus"
)

func (s *Server) getMentions(w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	daysBack, err := parseDaysBack(query.Get("days_back"), s.config.DaysBack)
	if err != nil {
		return err
	}
	platform, err := parsePlatform(query.Get("platform"))
	if err != nil {
		return err
	}
	forceRefresh, err := parseBool("force_refresh", query.Get("force_refresh"))
	if err != nil {
		return err
	}

	result := s.monitoring.Mentions(r.Context(), monitoring.MentionsQuery{
		DaysBack:     daysBack,
		Platform:     platform,
		ForceRefresh: forceRefresh,
	})

	fields := map[string]interface{}{
		"data":               result.Mentions,
		"total_count":        result.TotalCount,
		"source":             result.Source,
		"brand_name":         result.BrandName,
		"platforms_searched": result.PlatformsSearched,
	}
	if result.Message != "" {
		fields["message"] = result.Message
	}
	if result.CacheTimestamp != "" {
		fields["cache_timestamp"] = result.CacheTimestamp
	}

	writeJSON(w, http.StatusOK, success(fields))
	return nil
}

type refreshBody struct {
	DaysBack   int    `json:"days_back"`
	Platform   string `json:"platform"`
	MaxResults int    `json:"max_results"`
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) error {
	var body refreshBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}

	query := r.URL.Query()
	if v := query.Get("days_back"); v != "" {
		daysBack, err := parseDaysBack(v, s.config.DaysBack)
		if err != nil {
			return err
		}
		body.DaysBack = daysBack
	} else if body.DaysBack != 0 {
		if body.DaysBack < 1 || body.DaysBack > maxDaysBack {
			return newValidation("days_back", "must be between 1 and 365")
		}
	}
	if v := query.Get("platform"); v != "" {
		body.Platform = v
	}
	platform, err := parsePlatform(body.Platform)
	if err != nil {
		return err
	}
	if body.MaxResults < 0 {
		return newValidation("max_results", "must not be negative")
	}

	ctx, cancel := s.refreshContext(r)
	defer cancel()

	result, err := s.monitoring.Refresh(ctx, monitoring.RefreshRequest{
		DaysBack:    body.DaysBack,
		Platform:    platform,
		MaxResults:  body.MaxResults,
		Credentials: s.credentials(r),
	})
	if err != nil {
		return fmt.Errorf("failed to refresh mentions: %w", err)
	}

	fields := map[string]interface{}{
		"data":               result.Mentions,
		"total_count":        result.TotalCount,
		"source":             "live_api",
		"cached":             result.Cached,
		"run_id":             result.RunID,
		"duration":           result.Duration,
		"platforms_searched": result.PlatformsSearched,
		"source_counts":      result.SourceCounts,
	}
	if len(result.SourceErrors) > 0 {
		fields["source_errors"] = result.SourceErrors
	}

	writeJSON(w, http.StatusOK, success(fields))
	return nil
}

func (s *Server) cacheStatus(w http.ResponseWriter, r *http.Request) error {
	status := s.cache.Status(r.Context(), s.config.CacheMaxAge)

	fields := map[string]interface{}{
		"cached":         status.Cached,
		"total_mentions": status.TotalMentions,
		"file_age_hours": status.FileAgeHours,
		"file_size_kb":   status.FileSizeKB,
		"is_stale":       status.IsStale,
	}
	if !status.Cached && status.Error == "" {
		fields["message"] = "No cache file exists"
	}
	if status.CacheTimestamp != "" {
		fields["cache_timestamp"] = status.CacheTimestamp
		fields["brand_name"] = status.BrandName
	}
	if status.Error != "" {
		fields["error"] = status.Error
	}

	writeJSON(w, http.StatusOK, success(fields))
	return nil
}

type sentimentBody struct {
	Text     string   `json:"text"`
	Texts    []string `json:"texts"`
	Platform string   `json:"platform"`
}

func (b sentimentBody) context(brand string) sentiment.Context {
	platform := strings.TrimSpace(b.Platform)
	if platform == "" {
		platform = "web"
	}
	return sentiment.Context{Brand: brand, Platform: platform}
}

func (s *Server) sentiment(w http.ResponseWriter, r *http.Request) error {
	var body sentimentBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	if strings.TrimSpace(body.Text) == "" {
		return newValidation("text", "No text provided for analysis")
	}

	chain := s.monitoring.Sentiment(s.credentials(r))
	result := chain.Classify(r.Context(), strings.TrimSpace(body.Text), body.context(s.config.BrandName))

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"data": result}))
	return nil
}

func (s *Server) sentimentBatch(w http.ResponseWriter, r *http.Request) error {
	var body sentimentBody
	if err := decodeBody(r, &body); err != nil {
		return err
	}
	if len(body.Texts) == 0 {
		return newValidation("texts", "No texts provided for analysis")
	}
	if len(body.Texts) > maxBatchTexts {
		return newValidation("texts", fmt.Sprintf("at most %d texts per batch", maxBatchTexts))
	}

	chain := s.monitoring.Sentiment(s.credentials(r))
	results := chain.Batch(r.Context(), body.Texts, body.context(s.config.BrandName))

	writeJSON(w, http.StatusOK, success(map[string]interface{}{
		"data":    results,
		"summary": sentiment.Summarize(results),
	}))
	return nil
}

func (s *Server) sentimentConfig(w http.ResponseWriter, r *http.Request) error {
	chain := s.monitoring.Sentiment(s.credentials(r))

	config := chain.Config()
	config["enabled"] = s.config.EnableSentimentAnalysis

	writeJSON(w, http.StatusOK, success(map[string]interface{}{"data": config}))
	return nil
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) error {
	daysBack, err := parseDaysBack(r.URL.Query().Get("days_back"), s.config.DaysBack)
	if err != nil {
		return err
	}

	mentions := s.monitoring.CachedMentions(r.Context())
	summary := s.aggregator.Aggregate(r.Context(), mentions, daysBack, s.analytics, s.config.BrandName)

	writeJSON(w, http.StatusOK, success(map[string]interface{}{
		"data":   summary,
		"cached": mentions != nil,
	}))
	return nil
}

func (s *Server) brandConfig(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, success(map[string]interface{}{
		"data": map[string]interface{}{
			"brand_name":          s.config.BrandName,
			"platforms":           s.config.Platforms,
			"days_back":           s.config.DaysBack,
			"relevance_threshold": s.config.RelevanceThreshold,
			"configured_apis":     s.credentials(r).Configured(),
			"ga4_configured":      s.analytics != nil,
		},
	}))
	return nil
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) error {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return newValidationWrap("format", "must be csv, json or dashboard", err)
	}

	mentions := s.monitoring.CachedMentions(r.Context())

	prefix := "mentions"
	if format == export.FormatDashboard {
		prefix = "dashboard_mentions"
	}
	filename := fmt.Sprintf("%s_%s.%s", prefix, time.Now().UTC().Format("20060102_150405"), format.Extension())

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	// Headers are already sent, so a failure here can only be logged
	if err := export.Write(w, format, mentions); err != nil {
		logrus.Errorf("Export of %d mentions failed: %v", len(mentions), err)
	}
	return nil
}

func (s *Server) runMetrics(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, success(map[string]interface{}{"data": s.monitoring.GetRunMetrics()}))
	return nil
}
