package sentiment

import (
	"math"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
)

const highConfidenceThreshold = 0.7

// Summarize aggregates a batch of results. An empty batch yields a zero summary.
func Summarize(results []models.SentimentResult) models.SentimentSummary {
	summary := models.SentimentSummary{
		Total:               len(results),
		EmotionDistribution: map[string]int{},
	}
	if len(results) == 0 {
		return summary
	}

	confidenceSum := 0.0
	for _, r := range results {
		switch r.Sentiment {
		case models.SentimentPositive:
			summary.Positive++
		case models.SentimentNegative:
			summary.Negative++
		default:
			summary.Neutral++
		}

		confidenceSum += r.Confidence
		if r.Confidence > highConfidenceThreshold {
			summary.HighConfidenceCount++
		}
		for _, emotion := range r.EmotionalCategories {
			summary.EmotionDistribution[emotion]++
		}
	}

	total := float64(summary.Total)
	summary.PositivePercent = round(float64(summary.Positive)/total*100, 1)
	summary.NegativePercent = round(float64(summary.Negative)/total*100, 1)
	summary.NeutralPercent = round(float64(summary.Neutral)/total*100, 1)
	summary.AvgConfidence = round(confidenceSum/total, 3)

	return summary
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
