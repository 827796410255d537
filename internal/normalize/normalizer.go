package normalize

import (
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/sources"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// Context carries what a normalizer needs besides the payload itself
type Context struct {
	Brand string
	Now   time.Time
}

// Normalizer maps one provider's payload onto a Mention
type Normalizer interface {
	// Normalize returns nil when the item has no usable id
	Normalize(item sources.RawItem, ctx Context) *models.Mention
}

// NormalizerFunc adapts a function to the Normalizer interface
type NormalizerFunc func(item sources.RawItem, ctx Context) *models.Mention

func (f NormalizerFunc) Normalize(item sources.RawItem, ctx Context) *models.Mention {
	return f(item, ctx)
}

var registry = map[string]Normalizer{
	models.SourceTikTok:  NormalizerFunc(normalizeTikTok),
	models.SourceYouTube: NormalizerFunc(normalizeYouTube),
	models.SourceReddit:  NormalizerFunc(normalizeReddit),
	models.SourceExa:     NormalizerFunc(normalizeExa),
}

// Normalize selects the normalizer for the item's provider
func Normalize(item sources.RawItem, ctx Context) *models.Mention {
	normalizer, ok := registry[item.Provider]
	if !ok {
		logrus.Debugf("No normalizer registered for provider %q", item.Provider)
		return nil
	}
	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}
	return normalizer.Normalize(item, ctx)
}

// NormalizeAll normalizes a batch and reports how many items were dropped
func NormalizeAll(items []sources.RawItem, ctx Context) ([]models.Mention, int) {
	mentions := make([]models.Mention, 0, len(items))
	dropped := 0

	for _, item := range items {
		mention := Normalize(item, ctx)
		if mention == nil {
			dropped++
			continue
		}
		mentions = append(mentions, *mention)
	}

	if dropped > 0 {
		logrus.Debugf("Dropped %d items without a usable id", dropped)
	}

	return mentions, dropped
}

// decode unmarshals a payload into out. A malformed payload yields false.
func decode(item sources.RawItem, out interface{}) bool {
	if len(item.Data) == 0 {
		return false
	}
	if err := json.Unmarshal(item.Data, out); err != nil {
		logrus.Debugf("Failed to decode %s item: %v", item.Provider, err)
		return false
	}
	return true
}

func newMention(id string, platform models.Platform, source string, ctx Context) *models.Mention {
	return &models.Mention{
		ID:          id,
		Platform:    platform,
		Source:      source,
		ContentType: models.ContentTypeGeneral,
		Sentiment:   models.SentimentNeutral,
		Engagement:  models.Engagement{},
		ExtractedAt: models.FormatTimestamp(ctx.Now),
	}
}
