package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/normalize"
	"github.com/jonreiter/govader"
)

const vaderThreshold = 0.20

// VaderClassifier scores text with the VADER lexicon. It runs locally and only fails on text
// that has nothing left after markdown and links are stripped.
type VaderClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVaderClassifier() *VaderClassifier {
	return &VaderClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (v *VaderClassifier) Name() string {
	return MethodVader
}

func (v *VaderClassifier) Classify(_ context.Context, text string, _ Context) (*models.SentimentResult, error) {
	plain := normalize.MarkdownToText(text)
	if plain == "" {
		return nil, errors.New("no text left to score after cleanup")
	}

	scores := v.analyzer.PolarityScores(plain)
	compound := scores.Compound

	label := models.SentimentNeutral
	switch {
	case compound >= vaderThreshold:
		label = models.SentimentPositive
	case compound <= -vaderThreshold:
		label = models.SentimentNegative
	}

	confidence := clamp01(math.Abs(compound))
	intensity := "low"
	switch {
	case confidence > 0.6:
		intensity = "high"
	case confidence > 0.3:
		intensity = "medium"
	}

	return &models.SentimentResult{
		Sentiment:           label,
		Confidence:          confidence,
		Reasoning:           fmt.Sprintf("VADER compound score %.3f", compound),
		EmotionalCategories: []string{},
		Intensity:           intensity,
		ContextAwareness:    "Lexicon-based analysis without brand context",
		Method:              MethodVader,
	}, nil
}
