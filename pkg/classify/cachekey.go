package classify

import (
	"net/url"
	"strings"
	"unicode"
)

// cacheKey derives the normalized cache key for one classification. Numeric
// path segments collapse to a placeholder so sibling detail pages
// (/jurisprudence/123/details, /jurisprudence/456/details) share one entry.
func cacheKey(source, rawURL string) string {
	return "classify:" + strings.ToLower(source) + "|" + normalizeURLPattern(rawURL)
}

func normalizeURLPattern(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.ToLower(rawURL)
	}

	segments := strings.Split(u.Path, "/")
	for i, seg := range segments {
		if isNumeric(seg) {
			segments[i] = "{n}"
		} else {
			segments[i] = strings.ToLower(seg)
		}
	}
	return strings.ToLower(u.Host) + strings.Join(segments, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
