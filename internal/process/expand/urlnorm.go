package expand

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

const (
	wwwPrefix   = "www."
	storyIDLen  = 12
	rootPath    = "/"
)

// Tracking query parameters stripped during URL normalization. Keys are
// matched case-insensitively; any "utm_" prefix is stripped as well.
var trackingParams = map[string]struct{}{
	"ref":         {},
	"ref_src":     {},
	"ref_url":     {},
	"referrer":    {},
	"fbclid":      {},
	"gclid":       {},
	"dclid":       {},
	"msclkid":     {},
	"igshid":      {},
	"mc_cid":      {},
	"mc_eid":      {},
	"cmpid":       {},
	"ncid":        {},
	"sr_share":    {},
	"spm":         {},
	"share_token": {},
}

// NormalizeURL canonicalizes an article URL so that variants of the same
// link compare equal: scheme and host are lowercased, a leading "www." is
// dropped, tracking query parameters are removed, the fragment is dropped,
// and a trailing slash is stripped everywhere except the root path.
// Normalization is idempotent and deterministic.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.TrimPrefix(strings.ToLower(parsed.Host), wwwPrefix)
	parsed.Fragment = ""

	query := parsed.Query()
	for key := range query {
		if isTrackingParam(key) {
			query.Del(key)
		}
	}

	// url.Values.Encode sorts keys, which keeps the result deterministic.
	parsed.RawQuery = query.Encode()

	if parsed.Path != rootPath {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	// A bare host and the root path are the same location.
	if parsed.Host != "" && parsed.Path == "" {
		parsed.Path = rootPath
	}

	return parsed.String()
}

func isTrackingParam(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, "utm_") {
		return true
	}

	_, ok := trackingParams[key]

	return ok
}

// StoryID derives a stable 12-hex identifier from the normalized URL, or
// from the trimmed title when no URL is present. Candidates sharing a
// normalized URL get the same ID even across separate calls.
func StoryID(rawURL, title string) string {
	basis := NormalizeURL(rawURL)
	if basis == "" {
		basis = strings.TrimSpace(title)
	}

	if basis == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(basis))

	return hex.EncodeToString(sum[:])[:storyIDLen]
}
