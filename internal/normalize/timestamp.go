package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/attribution-dashboard/brand-mentions/internal/models"
)

var relativeTimePattern = regexp.MustCompile(`(\d+)\s*(second|minute|hour|day|week|month|year)s?\s+ago`)

// epochTime converts epoch seconds. Zero or negative values are treated as missing.
func epochTime(seconds float64) (time.Time, bool) {
	if seconds <= 0 {
		return time.Time{}, false
	}
	// Some providers send milliseconds
	if seconds > 1e12 {
		seconds /= 1000
	}
	sec := int64(seconds)
	nsec := int64((seconds - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}

// relativeTime understands "3 days ago" style text
func relativeTime(text string, now time.Time) (time.Time, bool) {
	match := relativeTimePattern.FindStringSubmatch(strings.ToLower(text))
	if match == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}

	switch match[2] {
	case "second":
		return now.Add(-time.Duration(n) * time.Second), true
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute), true
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour), true
	case "day":
		return now.AddDate(0, 0, -n), true
	case "week":
		return now.AddDate(0, 0, -7*n), true
	case "month":
		return now.AddDate(0, -n, 0), true
	case "year":
		return now.AddDate(-n, 0, 0), true
	}
	return time.Time{}, false
}

// coerceTimestamp picks the first usable representation: epoch seconds, ISO text,
// relative text, and finally now. The result is always a valid ISO-8601 string;
// estimated is true when nothing usable was found and now was used.
func coerceTimestamp(now time.Time, epoch float64, texts ...string) (ts string, estimated bool) {
	if t, ok := epochTime(epoch); ok {
		return models.FormatTimestamp(t), false
	}
	for _, text := range texts {
		if t, ok := models.ParseTimestamp(text); ok {
			return models.FormatTimestamp(t), false
		}
	}
	for _, text := range texts {
		if t, ok := relativeTime(text, now); ok {
			return models.FormatTimestamp(t), false
		}
	}
	return models.FormatTimestamp(now), true
}
