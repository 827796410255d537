package normalize

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`)
)

// Web content types
const (
	ContentBlogArticle     = "blog_article"
	ContentReview          = "review"
	ContentForumDiscussion = "forum_discussion"
	ContentDocumentation   = "documentation"
	ContentNews            = "news"
)

// ClassifyWebContent guesses what kind of page a web result is from its URL, title and text.
// Rules are checked in order and the first hit wins.
func ClassifyWebContent(rawURL, title, content string) string {
	u := strings.ToLower(rawURL)
	body := strings.ToLower(title + content)

	switch {
	case containsAny(u, "blog", "article", "post", "news"):
		return ContentBlogArticle
	case containsAny(body, "review", "rating", "stars"):
		return ContentReview
	case containsAny(u, "forum", "discussion", "reddit", "stackoverflow"):
		return ContentForumDiscussion
	case containsAny(u, "docs", "documentation", "help", "support"):
		return ContentDocumentation
	case containsAny(u, "press", "announcement"):
		return ContentNews
	}

	return "general"
}

// HasContactInfo reports whether text contains something that looks like an email address or phone number
func HasContactInfo(text string) bool {
	if text == "" {
		return false
	}
	return emailPattern.MatchString(text) || phonePattern.MatchString(text)
}

// MentionContext returns up to two windows of ten words either side of a brand occurrence
func MentionContext(text, brand string) string {
	// Words are matched one at a time so a multi-word brand is located by its first word
	fields := strings.Fields(strings.ToLower(brand))
	if text == "" || len(fields) == 0 {
		return ""
	}
	brand = fields[0]

	words := strings.Fields(text)
	var contexts []string
	for i, word := range words {
		if !strings.Contains(strings.ToLower(word), brand) {
			continue
		}
		start := i - 10
		if start < 0 {
			start = 0
		}
		end := i + 11
		if end > len(words) {
			end = len(words)
		}
		contexts = append(contexts, strings.Join(words[start:end], " "))
		if len(contexts) == 2 {
			break
		}
	}

	return strings.Join(contexts, " ... ")
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
