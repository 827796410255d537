package normalize

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	bareURLPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// blockTags separate words when stripped; inline tags do not
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "td": true, "th": true, "table": true, "blockquote": true,
	"pre": true, "hr": true, "section": true, "article": true,
}

// StripHTML returns the text content of an HTML fragment with whitespace collapsed.
// Script and style bodies are dropped.
func StripHTML(input string) string {
	if !strings.ContainsAny(input, "<&") {
		return collapseWhitespace(input)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var text strings.Builder
	skip := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return collapseWhitespace(text.String())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && tokenType == html.StartTagToken {
				skip++
			}
			if blockTags[tag] {
				text.WriteString(" ")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			}
			if blockTags[tag] {
				text.WriteString(" ")
			}
		case html.TextToken:
			if skip == 0 {
				text.Write(tokenizer.Text())
			}
		}
	}
}

// RemoveLinks keeps markdown link labels and drops bare URLs
func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return bareURLPattern.ReplaceAllString(input, "")
}

// MarkdownToText renders markdown and strips the resulting markup
func MarkdownToText(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	input = RemoveLinks(input)
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	return StripHTML(string(output))
}

// DefaultTitle derives a display title from content: first 100 characters, with an ellipsis when cut
func DefaultTitle(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) <= 100 {
		return string(runes)
	}
	return string(runes[:100]) + "..."
}

// CountWords counts whitespace separated words
func CountWords(text string) int {
	return len(strings.Fields(text))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// firstNonEmpty returns the first argument that is not blank
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
