package parse

import "net/url"

// IsInternal reports whether candidate shares its network location
// (host and port) with base. Scheme is deliberately not compared, so an
// http link on an https site still counts as internal
func IsInternal(base *url.URL, candidate string) bool {
	if base == nil {
		return false
	}
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return u.Host != "" && u.Host == base.Host
}

// IsCrawlableScheme reports whether candidate uses a scheme the crawler can
// fetch. Links such as mailto: and tel: must never enter the frontier
func IsCrawlableScheme(candidate string) bool {
	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
		return true
	}
	return false
}
