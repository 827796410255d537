package sentiment

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
)

var positiveWords = []string{
	"love", "amazing", "great", "awesome", "excellent", "fantastic", "wonderful",
	"perfect", "brilliant", "outstanding", "impressive", "incredible", "superb",
	"thrilled", "excited", "happy", "satisfied", "pleased", "delighted",
	"recommend", "best", "favorite", "thank", "grateful", "appreciate",
}

var negativeWords = []string{
	"hate", "terrible", "awful", "horrible", "bad", "worst", "disgusting",
	"annoying", "frustrated", "angry", "disappointed", "upset", "furious",
	"broken", "failed", "useless", "worthless", "disaster", "nightmare",
	"complaint", "problem", "issue", "bug", "error", "crash",
}

const (
	ruleNeutralConfidence = 0.3
	ruleMaxConfidence     = 0.8
)

// RuleClassifier labels text by counting fixed positive and negative keywords.
// It is deterministic and always returns a result.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (r *RuleClassifier) Name() string {
	return MethodRuleBased
}

func (r *RuleClassifier) Classify(_ context.Context, text string, _ Context) (*models.SentimentResult, error) {
	lower := strings.ToLower(text)
	positive := countKeywords(lower, positiveWords)
	negative := countKeywords(lower, negativeWords)

	label, confidence := ruleVerdict(positive, negative)

	intensity := "low"
	if confidence > 0.6 {
		intensity = "medium"
	}

	return &models.SentimentResult{
		Sentiment:           label,
		Confidence:          confidence,
		Reasoning:           fmt.Sprintf("Rule-based analysis: %d positive, %d negative keywords", positive, negative),
		EmotionalCategories: []string{},
		Intensity:           intensity,
		ContextAwareness:    "Limited context awareness with rule-based analysis",
		Method:              MethodRuleBased,
	}, nil
}

// ruleVerdict labels only when one side leads by more than one keyword.
// Confidence grows 0.1 per keyword of margin from 0.4, capped at 0.8; neutral is 0.3.
func ruleVerdict(positive, negative int) (string, float64) {
	margin := positive - negative
	switch {
	case margin > 1:
		return models.SentimentPositive, math.Min(ruleMaxConfidence, 0.4+float64(margin)*0.1)
	case margin < -1:
		return models.SentimentNegative, math.Min(ruleMaxConfidence, 0.4+float64(-margin)*0.1)
	}
	return models.SentimentNeutral, ruleNeutralConfidence
}

// countKeywords counts how many distinct keywords occur in text as substrings
func countKeywords(text string, keywords []string) int {
	count := 0
	for _, word := range keywords {
		if strings.Contains(text, word) {
			count++
		}
	}
	return count
}
