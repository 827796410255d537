package normalize

import (
	"net/url"
	"sort"
	"strings"
)

var trackingQueryKeys = map[string]struct{}{
	"fbclid":  {},
	"gclid":   {},
	"mc_cid":  {},
	"mc_eid":  {},
	"ref":     {},
	"ref_src": {},
	"igshid":  {},
	"si":      {},
}

// CanonicalURL normalizes a URL for equality checks: lower-cased scheme and host,
// default ports, fragments, trailing slashes and tracking parameters removed, query sorted.
// Unparsable or relative input is returned trimmed but otherwise unchanged.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return trimmed
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	if port := parsed.Port(); port != "" {
		defaultPort := (parsed.Scheme == "http" && port == "80") || (parsed.Scheme == "https" && port == "443")
		if !defaultPort {
			host = host + ":" + port
		}
	}
	parsed.Host = host
	parsed.Fragment = ""
	parsed.User = nil

	path := parsed.EscapedPath()
	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}
	if path == "" {
		path = "/"
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if unescaped, err := url.PathUnescape(path); err == nil {
		parsed.Path = unescaped
	} else {
		parsed.Path = path
	}
	parsed.RawPath = ""

	q := parsed.Query()
	for key := range q {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			q.Del(key)
			continue
		}
		if _, ok := trackingQueryKeys[lower]; ok {
			q.Del(key)
		}
	}
	for key := range q {
		sort.Strings(q[key])
	}
	// Encode sorts by key
	parsed.RawQuery = q.Encode()

	return parsed.String()
}

// Domain returns the host part of a URL, or "" when it has none
func Domain(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Host)
}
