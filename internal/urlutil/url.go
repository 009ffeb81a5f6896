// Package urlutil resolves, canonicalizes and de-duplicates URLs.
package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// FixURL resolves rawURL against the origin (scheme and host) of parentURL.
// Both inputs are lower-cased first, so relative paths land on the origin root
// and any case in the path is discarded.
func FixURL(parentURL, rawURL string) (string, error) {
	source, err := url.Parse(strings.ToLower(parentURL))
	if err != nil {
		return "", fmt.Errorf("parse parent url: %w", err)
	}
	if source.Scheme == "" || source.Host == "" {
		return "", fmt.Errorf("parent url %q has no scheme or host", parentURL)
	}
	ref, err := url.Parse(strings.ToLower(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	origin := &url.URL{Scheme: source.Scheme, Host: source.Host, Path: "/"}
	return origin.ResolveReference(ref).String(), nil
}

// NormalizeURL standardizes a URL to avoid duplicates.
// It lowercases the scheme and host, removes default ports, and sorts query parameters.
// It also removes fragments.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme == "http" && strings.HasSuffix(u.Host, ":80") {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" && strings.HasSuffix(u.Host, ":443") {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	u.Fragment = ""
	u.RawQuery = u.Query().Encode()

	return u.String(), nil
}

// Site extracts a lowercase hostname for use as a label.
// It returns "unknown" if the URL is invalid.
func Site(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Dedupe drops repeated values, keeping the first occurrence of each.
func Dedupe[T comparable](seq []T) []T {
	seen := make(map[T]struct{}, len(seq))
	out := make([]T, 0, len(seq))
	for _, v := range seq {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
