// Package fingerprint identifies one analyzed page state for caching.
//
// A fingerprint is a structured value, not a concatenated string: page
// identity, a content digest, and the time bucket the analysis ran in.
// Two runs share a fingerprint only when all three match, so a cache
// keyed by Fingerprint is always a miss in a new bucket even for
// unchanged content. That bounds staleness at one bucket width, a
// documented trade-off against explicit change invalidation.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pageaudit/pageaudit/internal/signal"
)

// timeNow is a package-level variable for testability.
// Tests can replace this to control bucket assignment.
var timeNow = time.Now

// Fingerprint is a comparable cache key for one page state in one
// time bucket.
type Fingerprint struct {
	Identity      string
	ContentDigest string
	Bucket        int64
}

// New fingerprints a page for the given bucket width. A non-positive
// width collapses to a single bucket (time plays no part in the key).
func New(page *signal.Context, bucketWidth time.Duration) Fingerprint {
	var bucket int64
	if bucketWidth > 0 {
		bucket = timeNow().Unix() / int64(bucketWidth.Seconds())
	}
	return Fingerprint{
		Identity:      NormalizeURL(page.URL),
		ContentDigest: contentDigest(page),
		Bucket:        bucket,
	}
}

// NormalizeURL canonicalizes a page URL for identity comparison:
// scheme and host lowered, fragment dropped, trailing slash trimmed.
// Unparsable input is returned as-is so identity still distinguishes it.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}

// contentDigest hashes the page title plus a structural digest: the
// element tag sequence of the DOM. Text edits that reshape the document
// or retitle it rotate the digest; the bucket bound covers the rest.
func contentDigest(page *signal.Context) string {
	h := sha256.New()
	h.Write([]byte(page.Title))
	h.Write([]byte{0})
	page.Document().Find("*").Each(func(_ int, s *goquery.Selection) {
		h.Write([]byte(goquery.NodeName(s)))
		h.Write([]byte{','})
	})
	return hex.EncodeToString(h.Sum(nil))
}
