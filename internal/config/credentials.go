package config

// Credentials carries the provider keys for one pipeline run. Keys are opaque strings.
type Credentials struct {
	ScrapeCreatorsKey string
	ExaKey            string
	OpenRouterKey     string
}

// Merge returns a copy where every non-empty field of override wins
func (c Credentials) Merge(override Credentials) Credentials {
	merged := c
	if override.ScrapeCreatorsKey != "" {
		merged.ScrapeCreatorsKey = override.ScrapeCreatorsKey
	}
	if override.ExaKey != "" {
		merged.ExaKey = override.ExaKey
	}
	if override.OpenRouterKey != "" {
		merged.OpenRouterKey = override.OpenRouterKey
	}
	return merged
}

// Configured lists which providers have a key
func (c Credentials) Configured() map[string]bool {
	return map[string]bool{
		"scrape_creators": c.ScrapeCreatorsKey != "",
		"exa_search":      c.ExaKey != "",
		"openrouter":      c.OpenRouterKey != "",
	}
}
