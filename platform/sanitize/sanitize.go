// Package sanitize provides text sanitization utilities for user input.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxQueryLength is the authoritative cap for search queries, in runes.
// Longer input is truncated, not rejected.
const MaxQueryLength = 256

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// whitespaceRegex matches runs of Unicode whitespace
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Query normalizes a free-text search query: ASCII control characters
// (0x00-0x1F, 0x7F) are removed, whitespace runs collapse to a single
// space, leading/trailing whitespace is trimmed, and the result is
// truncated to MaxQueryLength runes. All other Unicode is preserved,
// including combining marks, RTL scripts, and emoji. Markup-like
// substrings stay intact as literal text; escaping is the job of the
// encoding boundary, not input normalization.
func Query(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			continue
		}
		b.WriteRune(r)
	}

	result := whitespaceRegex.ReplaceAllString(b.String(), " ")
	result = strings.TrimSpace(result)

	runes := []rune(result)
	if len(runes) > MaxQueryLength {
		result = strings.TrimSpace(string(runes[:MaxQueryLength]))
	}
	return result
}

// NormalizeKey lowers a sanitized query for use as a cache key so that
// lookups are case-insensitive.
func NormalizeKey(s string) string {
	return strings.ToLower(Query(s))
}

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
// This is a defense-in-depth measure; frontend should also escape output.
func StripHTML(s string) string {
	// Remove HTML tags
	result := htmlTagRegex.ReplaceAllString(s, "")
	// Decode common HTML entities
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// DisplayName sanitizes a provider-returned place label for display by
// stripping HTML and collapsing whitespace.
func DisplayName(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(StripHTML(s), " "))
}
