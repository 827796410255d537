package sentiment

import (
	"context"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/sirupsen/logrus"
)

// Method names reported in SentimentResult.Method
const (
	MethodDefault   = "default"
	MethodRuleBased = "rule_based_fallback"
	MethodVader     = "vader"
)

const aiBatchDelay = 200 * time.Millisecond

// Context describes where a text came from
type Context struct {
	Brand    string
	Platform string
}

// Classifier is one tier of the sentiment chain.
// A tier that cannot produce a usable result returns an error so the next tier runs.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string, c Context) (*models.SentimentResult, error)
}

// Options configures the tiers a chain is built from
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string
	EnableVader bool
}

// Chain evaluates its tiers in order and returns the first usable result.
// Empty text never reaches a tier.
type Chain struct {
	tiers      []Classifier
	ai         *OpenRouterClassifier
	vader      bool
	batchDelay time.Duration
	now        func() time.Time
}

// New builds the chain for the given options: AI tier when a key is set, VADER when enabled, rules always
func New(opts Options) *Chain {
	var tiers []Classifier

	if opts.APIKey != "" {
		tiers = append(tiers, NewOpenRouterClassifier(opts.APIKey, opts.Model, opts.BaseURL))
	}
	if opts.EnableVader {
		tiers = append(tiers, NewVaderClassifier())
	}
	tiers = append(tiers, NewRuleClassifier())

	return NewChain(tiers...)
}

// NewChain creates a chain over explicit tiers
func NewChain(tiers ...Classifier) *Chain {
	c := &Chain{
		tiers: tiers,
		now:   time.Now,
	}
	for _, tier := range tiers {
		switch t := tier.(type) {
		case *OpenRouterClassifier:
			c.ai = t
			c.batchDelay = aiBatchDelay
		case *VaderClassifier:
			c.vader = true
		}
	}
	return c
}

// Classify returns a result for text. It never fails: every tier error falls through
// and the chain ends at the neutral default.
func (c *Chain) Classify(ctx context.Context, text string, sc Context) models.SentimentResult {
	if strings.TrimSpace(text) == "" {
		return c.defaultResult(text, "Empty text")
	}

	for _, tier := range c.tiers {
		result, err := tier.Classify(ctx, text, sc)
		if err != nil {
			logrus.Debugf("Sentiment tier %s failed, falling back: %v", tier.Name(), err)
			continue
		}
		if result == nil || !validLabel(result.Sentiment) {
			continue
		}
		result.TextLength = len(text)
		if result.Timestamp == "" {
			result.Timestamp = models.FormatTimestamp(c.now())
		}
		return *result
	}

	return c.defaultResult(text, "No sentiment tier produced a result")
}

// Batch classifies texts one at a time. With the AI tier active a short pause separates calls.
// Cancellation stops the batch; texts not yet classified are omitted from the result.
func (c *Chain) Batch(ctx context.Context, texts []string, sc Context) []models.SentimentResult {
	results := make([]models.SentimentResult, 0, len(texts))

	for i, text := range texts {
		if i > 0 && c.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(c.batchDelay):
			}
		}
		if ctx.Err() != nil {
			return results
		}
		results = append(results, c.Classify(ctx, text, sc))
	}

	return results
}

// AIEnabled reports whether the chain includes the hosted model tier
func (c *Chain) AIEnabled() bool {
	return c.ai != nil
}

// Config describes the chain for the sentiment-config endpoint
func (c *Chain) Config() map[string]interface{} {
	names := make([]string, 0, len(c.tiers)+1)
	for _, tier := range c.tiers {
		names = append(names, tier.Name())
	}
	names = append(names, MethodDefault)

	model := ""
	status := "fallback"
	if c.ai != nil {
		model = c.ai.Model()
		status = "enhanced"
	}

	return map[string]interface{}{
		"openrouter_configured": c.ai != nil,
		"model":                 model,
		"vader_enabled":         c.vader,
		"tiers":                 names,
		"status":                status,
	}
}

func (c *Chain) defaultResult(text, reason string) models.SentimentResult {
	return models.SentimentResult{
		Sentiment:           models.SentimentNeutral,
		Confidence:          0.0,
		Reasoning:           reason,
		EmotionalCategories: []string{},
		Intensity:           "low",
		ContextAwareness:    "No analysis performed",
		Method:              MethodDefault,
		TextLength:          len(text),
		Timestamp:           models.FormatTimestamp(c.now()),
	}
}

func validLabel(label string) bool {
	switch label {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
		return true
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
