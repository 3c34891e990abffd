package parse

import (
	"net/url"
	"strings"
)

// Normalize resolves link against base per standard URL-resolution rules,
// drops the fragment component, trims surrounding whitespace, and strips
// exactly one trailing slash
// Normalization is idempotent, and two links that differ only by fragment
// or trailing slash normalize identically, which is what makes frontier
// deduplication correct
// There is no error path: malformed input yields a best-effort string that
// the downstream fetch will fail
func Normalize(base *url.URL, link string) string {
	link = strings.TrimSpace(link)

	ref, err := url.Parse(link)
	if err != nil {
		return strings.TrimSuffix(link, "/")
	}

	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	resolved.Fragment = ""

	return strings.TrimSuffix(resolved.String(), "/")
}

// NormalizeString normalizes an absolute URL string with no base, as used
// for the crawl seed
func NormalizeString(rawURL string) string {
	return Normalize(nil, rawURL)
}
