package monitoring

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/sentiment"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RunScheduledRefresh refreshes with the configured credentials and sends the run report
func (s *Service) RunScheduledRefresh(ctx context.Context) error {
	if s.config.RefreshTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RefreshTimeout)
		defer cancel()
	}

	result, err := s.Refresh(ctx, RefreshRequest{
		DaysBack:    s.config.DaysBack,
		Platform:    "all",
		Credentials: s.config.Credentials(),
	})
	if err != nil {
		return errors.Wrap(err, "scheduled refresh failed")
	}

	if s.notificationService == nil {
		return nil
	}

	report := s.GenerateReport(result.Mentions, fmt.Sprintf("last %d days", s.config.DaysBack))
	if err := s.notificationService.SendReport(report); err != nil {
		return errors.Wrap(err, "failed to send report")
	}
	return nil
}

// GenerateReport summarises mentions by source, sentiment and platform
func (s *Service) GenerateReport(mentions []models.Mention, period string) *models.Report {
	report := &models.Report{
		GeneratedAt:   s.now(),
		Period:        period,
		BrandName:     s.config.BrandName,
		TotalMentions: len(mentions),
		Mentions:      mentions,
		Summary:       make(map[string]interface{}),
	}

	sourceCount := make(map[string]int)
	sentimentCount := make(map[string]int)
	platformCount := make(map[string]int)
	results := make([]models.SentimentResult, 0, len(mentions))

	for _, mention := range mentions {
		sourceCount[mention.Source]++
		sentimentCount[mention.Sentiment]++
		platformCount[string(mention.Platform)]++
		results = append(results, models.SentimentResult{
			Sentiment:  mention.Sentiment,
			Confidence: mention.SentimentConfidence,
		})
	}

	report.Summary["sources"] = sourceCount
	report.Summary["sentiment"] = sentimentCount
	report.Summary["platforms"] = platformCount
	report.Summary["top_sources"] = getTopSources(sourceCount)
	report.Summary["sentiment_summary"] = sentiment.Summarize(results)

	return report
}

func getTopSources(sourceCount map[string]int) []string {
	type sourceScore struct {
		source string
		count  int
	}

	var scores []sourceScore
	for source, count := range sourceCount {
		scores = append(scores, sourceScore{source, count})
	}

	// Count descending, name ascending on ties
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].count != scores[j].count {
			return scores[i].count > scores[j].count
		}
		return scores[i].source < scores[j].source
	})

	var topSources []string
	for i, score := range scores {
		if i >= 5 {
			break
		}
		topSources = append(topSources, fmt.Sprintf("%s (%d)", score.source, score.count))
	}

	return topSources
}

func (s *Service) alertAllSourcesFailed(result *models.RefreshResult) {
	if s.notificationService == nil {
		return
	}

	var lines []string
	for _, name := range result.PlatformsSearched {
		lines = append(lines, fmt.Sprintf("%s: %s", name, result.SourceErrors[name]))
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		Type:      "critical",
		Title:     fmt.Sprintf("All sources failed for %s", s.config.BrandName),
		Message:   fmt.Sprintf("Refresh %s collected no mentions.\n%s", result.RunID, strings.Join(lines, "\n")),
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	if err := s.notificationService.SendAlert(alert); err != nil {
		logrus.Errorf("Failed to send alert: %v", err)
	}
}
