package dedupe

import (
	"github.com/attribution-dashboard/brand-mentions/internal/models"
	"github.com/attribution-dashboard/brand-mentions/internal/normalize"
)

// Dedupe removes repeated mentions keeping the first occurrence and the input order.
//
// Mentions are the same when they share source, platform and id. Web results are
// additionally matched on their canonical URL because the search provider has no
// stable id across query variants. Different sources never collapse into each other.
func Dedupe(mentions []models.Mention) []models.Mention {
	if len(mentions) == 0 {
		return []models.Mention{}
	}

	seenIDs := make(map[string]struct{}, len(mentions))
	seenURLs := make(map[string]struct{})
	result := make([]models.Mention, 0, len(mentions))

	for _, m := range mentions {
		idKey := m.Source + "|" + string(m.Platform) + "|" + m.ID
		if _, dup := seenIDs[idKey]; dup {
			continue
		}

		urlKey := ""
		if m.Platform == models.PlatformWeb {
			if canonical := normalize.CanonicalURL(m.URL); canonical != "" {
				urlKey = m.Source + "|" + canonical
				if _, dup := seenURLs[urlKey]; dup {
					continue
				}
			}
		}

		seenIDs[idKey] = struct{}{}
		if urlKey != "" {
			seenURLs[urlKey] = struct{}{}
		}
		result = append(result, m)
	}

	return result
}
