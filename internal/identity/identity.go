// Package identity derives stable entity keys from URLs.
//
// Two observations of the same real-world page or item must map to the same
// key regardless of tracking parameters, fragments or case differences in
// scheme/host. Keys are the first 16 hex chars (64 bits) of a sha256 over
// the normalized URL; at a million tracked entities the collision
// probability is on the order of 1e-8, which is negligible for alert state.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

const keyHexLen = 16

// Normalize canonicalizes a URL for keying: lowercase scheme and host,
// strip query string and fragment, trim a trailing slash from the path.
// An unparseable input is returned trimmed as-is so keying stays total.
func Normalize(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// Key returns the entity key for a URL.
func Key(rawURL string) string {
	sum := sha256.Sum256([]byte(Normalize(rawURL)))
	return hex.EncodeToString(sum[:])[:keyHexLen]
}

// ScopedKey returns an entity key for one logical record over a URL that
// carries more than one. A product page has both a page-status record and a
// stock record on the same URL; the scope keeps their keys apart so neither
// record can shadow the other's state.
func ScopedKey(scope, rawURL string) string {
	sum := sha256.Sum256([]byte(scope + "|" + Normalize(rawURL)))
	return hex.EncodeToString(sum[:])[:keyHexLen]
}
