package relevance

import (
	"math"
	"sort"
	"strings"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
)

// DefaultThreshold is the minimum web relevance kept by FilterRelevant unless configured otherwise
const DefaultThreshold = 0.3

var socialKeywords = []string{"software", "app", "tool", "platform", "service", "product"}

var webKeywords = []string{
	"review", "comparison", "alternative", "vs", "versus", "experience",
	"opinion", "recommend", "using", "tried", "features", "pricing",
	"benefits", "pros", "cons",
}

// ScoreSocial scores short social content: brand presence dominates, product vocabulary adds a little.
func ScoreSocial(text, brand string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	lower := strings.ToLower(text)

	score := 0.0
	if brand = strings.ToLower(strings.TrimSpace(brand)); brand != "" && strings.Contains(lower, brand) {
		score += 0.8
	}
	for _, keyword := range socialKeywords {
		if strings.Contains(lower, keyword) {
			score += 0.1
		}
	}
	if len(strings.Fields(text)) < 5 {
		score *= 0.7
	}

	return clamp(score)
}

// ScoreWeb scores a web page from its title and body.
// A brand in the title weighs more than repeated body mentions, which are capped.
func ScoreWeb(title, content, brand string, hasPublishDate bool) float64 {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(content) == "" {
		return 0
	}
	lowerTitle := strings.ToLower(title)
	lowerContent := strings.ToLower(content)

	score := 0.0
	if brand = strings.ToLower(strings.TrimSpace(brand)); brand != "" {
		if strings.Contains(lowerTitle, brand) {
			score += 0.6
		}
		score += math.Min(0.2*float64(strings.Count(lowerContent, brand)), 0.4)
	}
	for _, keyword := range webKeywords {
		if strings.Contains(lowerTitle, keyword) || strings.Contains(lowerContent, keyword) {
			score += 0.05
		}
	}
	if len(strings.Fields(content)) > 100 {
		score += 0.1
	}
	if hasPublishDate {
		score += 0.05
	}
	if len(strings.Fields(title+" "+content)) < 5 {
		score *= 0.7
	}

	return clamp(score)
}

// Score picks the scorer matching the mention's platform
func Score(m models.Mention, brand string) float64 {
	if m.Platform == models.PlatformWeb {
		return ScoreWeb(m.Title, m.Content, brand, !m.DateEstimated)
	}
	return ScoreSocial(m.Content, brand)
}

// FilterRelevant keeps mentions scoring at least threshold, ranked by relevance.
// Ties keep their input order.
func FilterRelevant(mentions []models.Mention, threshold float64) []models.Mention {
	kept := make([]models.Mention, 0, len(mentions))
	for _, m := range mentions {
		if m.RelevanceScore >= threshold {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})
	return kept
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
