package collector

import (
	"net/url"
	"strings"
)

// resolveURL turns an item link into an absolute URL against the source's
// base. Absolute links pass through untouched; root-relative and relative
// paths inherit the base's scheme and host.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return href
	}

	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Host == "" {
		return href
	}
	return baseURL.ResolveReference(parsed).String()
}
