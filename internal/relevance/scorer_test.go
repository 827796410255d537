package relevance

import (
	"strings"
	"testing"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestScoreSocial(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"Empty", "", 0},
		{"Whitespace", "   ", 0},
		{"Brand in longer text", "I have been using Acme every day lately", 0.8},
		{"Brand with product words", "Acme is the best app and tool for this job", 1.0},
		{"Short text penalised", "Acme rocks", 0.56},
		{"No brand", "nothing relevant in this sentence at all", 0},
		{"Case insensitive", "everyone talks about ACME these days now", 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ScoreSocial(tt.text, "Acme"), 1e-9)
		})
	}
}

func TestScoreWeb(t *testing.T) {
	long := strings.Repeat("word ", 120)

	tests := []struct {
		name           string
		title          string
		content        string
		hasPublishDate bool
		expected       float64
	}{
		{"Empty", "", "", true, 0},
		{"Brand in title only", "Acme launches new plan", "A company shipped something today for people", false, 0.6},
		{"Body mentions capped", "Some headline", "acme acme acme acme acme in the body text", false, 0.4},
		{"Keywords and publish date", "Acme review", "We tried Acme and compared pricing with others", true, 0.6 + 0.2 + 0.05*3 + 0.05},
		{"Long content bonus", "Acme", long, false, 0.6 + 0.1},
		{"Short text penalised", "Acme", "", false, 0.42},
		{"Clamped", "Acme review vs alternative", "Acme Acme Acme pricing features pros cons " + long, true, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ScoreWeb(tt.title, tt.content, "Acme", tt.hasPublishDate), 1e-9)
		})
	}
}

func TestScore_AlwaysInRange(t *testing.T) {
	inputs := []string{
		"",
		"Acme",
		strings.Repeat("Acme software app tool platform service product ", 50),
		"review comparison alternative vs versus experience opinion recommend using tried features pricing benefits pros cons",
	}

	for _, text := range inputs {
		for _, platform := range []models.Platform{models.PlatformWeb, models.PlatformForum} {
			score := Score(models.Mention{Platform: platform, Title: text, Content: text}, "Acme")
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestScore_UsesPublishDateForWeb(t *testing.T) {
	dated := models.Mention{Platform: models.PlatformWeb, Title: "Acme pricing", Content: "a page about the product line"}
	undated := dated
	undated.DateEstimated = true

	assert.InDelta(t, 0.05, Score(dated, "Acme")-Score(undated, "Acme"), 1e-9)
}

func TestFilterRelevant(t *testing.T) {
	mentions := []models.Mention{
		{ID: "a", RelevanceScore: 0.2},
		{ID: "b", RelevanceScore: 0.5},
		{ID: "c", RelevanceScore: 0.9},
		{ID: "d", RelevanceScore: 0.5},
		{ID: "e", RelevanceScore: 0.3},
	}

	filtered := FilterRelevant(mentions, DefaultThreshold)

	ids := make([]string, 0, len(filtered))
	for _, m := range filtered {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"c", "b", "d", "e"}, ids)
	assert.Empty(t, FilterRelevant(mentions, 0.95))
}
