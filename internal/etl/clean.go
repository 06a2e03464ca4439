// Package etl normalizes raw scraping agent output into canonical results.
package etl

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	horizontal = regexp.MustCompile(`[ \t]+`)
	// Allowed characters: Unicode letters and digits, whitespace
	// structure, common punctuation, quotes and brackets. Anything else
	// is stripped. Cleaning is a lossy normalization filter. \w would be
	// ASCII-only under RE2 and corrupt accented content, so the class
	// spells out the Unicode categories.
	disallowed = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?\-()\[\]{}'"` + "\n\r\t" + `]`)
)

// CleanText collapses runs of horizontal whitespace to a single space,
// collapses multiple blank lines to exactly one, and strips characters
// outside the allow-listed set.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = disallowed.ReplaceAllString(text, "")
	text = blankLines.ReplaceAllString(text, "\n\n")
	text = horizontal.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractDomain derives the bare domain from a URL: the host component
// with any leading "www." prefix removed. The second return value is
// false when no host can be derived.
func ExtractDomain(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	domain := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if domain == "" {
		return "", false
	}
	return domain, true
}

// FormatDate validates a date string against YYYY-MM-DD. On failure the
// original string is returned verbatim with ok=false; malformed dates
// are a soft warning, not a rejection.
func FormatDate(dateStr string) (string, bool) {
	if dateStr == "" {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		return dateStr, false
	}
	return dateStr, true
}
