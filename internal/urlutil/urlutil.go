package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// AllowFunc reports whether a URL may be monitored.
type AllowFunc func(rawURL string) bool

// PrefixAllowList returns an AllowFunc that accepts absolute http(s) URLs
// starting with one of the given prefixes. With no prefixes every absolute
// http(s) URL is accepted.
func PrefixAllowList(prefixes ...string) AllowFunc {
	return func(rawURL string) bool {
		if err := Validate(rawURL); err != nil {
			return false
		}
		if len(prefixes) == 0 {
			return true
		}
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(rawURL, p) {
				return true
			}
		}
		return false
	}
}

// Validate checks that rawURL is an absolute HTTP or HTTPS URL with a host.
func Validate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse url: %w", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("url must be an absolute http or https url")
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host")
	}
	return nil
}

// DeriveTitle builds a display title from the last path segment of a URL,
// cut at the first dot: "https://shop/x/ring.html" gives "ring".
// The full URL is returned when that leaves nothing.
func DeriveTitle(rawURL string) string {
	seg := rawURL
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	if i := strings.Index(seg, "."); i >= 0 {
		seg = seg[:i]
	}
	if seg == "" {
		return rawURL
	}
	return seg
}
