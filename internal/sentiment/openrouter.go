package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/goccy/go-json"
	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultOpenRouterBaseURL is the OpenAI-compatible OpenRouter endpoint
	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is used when no model is configured
	DefaultModel = "google/gemini-2.0-flash-exp"

	openRouterRequestTimeout = 30 * time.Second
)

var jsonFencePattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// OpenRouterClassifier asks a hosted language model for a structured sentiment verdict
type OpenRouterClassifier struct {
	client *openai.Client
	model  string
}

// headerTransport adds the attribution headers OpenRouter expects on every request
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.base.RoundTrip(req)
}

// NewOpenRouterClassifier creates the AI tier. An empty baseURL selects OpenRouter.
func NewOpenRouterClassifier(apiKey, model, baseURL string) *OpenRouterClassifier {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL
	config.HTTPClient = &http.Client{
		Timeout: openRouterRequestTimeout,
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": "https://attribution-dashboard.local",
				"X-Title":      "Attribution Dashboard",
			},
		},
	}

	return &OpenRouterClassifier{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

func (o *OpenRouterClassifier) Name() string {
	return "openrouter"
}

// Model returns the configured model name
func (o *OpenRouterClassifier) Model() string {
	return o.model
}

// Method is the method tag results from this tier carry
func (o *OpenRouterClassifier) Method() string {
	return "openrouter_" + strings.ReplaceAll(o.model, "/", "_")
}

type aiVerdict struct {
	Sentiment           string          `json:"sentiment"`
	Confidence          json.RawMessage `json:"confidence"`
	Reasoning           string          `json:"reasoning"`
	EmotionalCategories []string        `json:"emotional_categories"`
	Intensity           string          `json:"intensity"`
	ContextAwareness    string          `json:"context_awareness"`
}

func (o *OpenRouterClassifier) Classify(ctx context.Context, text string, c Context) (*models.SentimentResult, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(text, c),
			},
		},
		Temperature: 0.3,
		MaxTokens:   500,
		TopP:        0.9,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion returned no choices")
	}

	verdict, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	result := &models.SentimentResult{
		Sentiment:           strings.ToLower(strings.TrimSpace(verdict.Sentiment)),
		Confidence:          parseConfidence(verdict.Confidence),
		Reasoning:           verdict.Reasoning,
		EmotionalCategories: verdict.EmotionalCategories,
		Intensity:           verdict.Intensity,
		ContextAwareness:    verdict.ContextAwareness,
		Method:              o.Method(),
	}
	if !validLabel(result.Sentiment) {
		result.Sentiment = models.SentimentNeutral
	}
	if result.Reasoning == "" {
		result.Reasoning = "AI-powered sentiment analysis"
	}
	if result.EmotionalCategories == nil {
		result.EmotionalCategories = []string{}
	}
	switch result.Intensity {
	case "low", "medium", "high":
	default:
		result.Intensity = "medium"
	}

	return result, nil
}

func buildPrompt(text string, c Context) string {
	brand := c.Brand
	if brand == "" {
		brand = "the brand"
	}
	platform := c.Platform
	if platform == "" {
		platform = "social media"
	}

	return fmt.Sprintf(`Analyze the sentiment of this %s mention about %s:

"%s"

Provide your analysis in this exact JSON format:
{
    "sentiment": "positive|negative|neutral",
    "confidence": 0.0-1.0,
    "reasoning": "brief explanation of why this sentiment was chosen",
    "emotional_categories": ["excited", "frustrated", "curious", "satisfied", "concerned", "enthusiastic"],
    "intensity": "low|medium|high",
    "context_awareness": "any cultural, sarcastic, or contextual notes"
}

Consider:
- Sarcasm and irony
- Cultural context and slang
- Brand-specific implications
- Emotional nuance beyond basic positive/negative
- Context of the platform and conversation

Return only the JSON, no additional text.`, platform, brand, text)
}

// parseVerdict extracts the JSON object from a model reply, which may be fenced or surrounded by prose
func parseVerdict(content string) (*aiVerdict, error) {
	body := strings.TrimSpace(content)
	if match := jsonFencePattern.FindStringSubmatch(body); match != nil {
		body = match[1]
	} else {
		start := strings.Index(body, "{")
		end := strings.LastIndex(body, "}")
		if start < 0 || end <= start {
			return nil, errors.New("no JSON object in model response")
		}
		body = body[start : end+1]
	}

	var verdict aiVerdict
	if err := json.Unmarshal([]byte(body), &verdict); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	if strings.TrimSpace(verdict.Sentiment) == "" {
		return nil, errors.New("model response has no sentiment field")
	}
	return &verdict, nil
}

// parseConfidence accepts a number or numeric string and defaults to 0.5
func parseConfidence(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0.5
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return clamp01(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &parsed); err == nil {
			return clamp01(parsed)
		}
	}
	return 0.5
}
