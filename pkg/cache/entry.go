package cache

import (
	"net/http"
	"time"
)

// CacheEntry is a cached room server response: a /room/{index} record or
// the /rooms tour size. Only 200 responses are stored; a 304 refreshes
// Expires in place.
type CacheEntry struct {
	// Data is the JSON body as served, decoded again on every hit
	Data []byte `json:"data"`

	// ETag sent back as If-None-Match once the entry is stale
	ETag string `json:"etag"`

	// Expires comes from Cache-Control max-age, Expires or DefaultTTL
	Expires time.Time `json:"expires"`

	// LastModified is the If-Modified-Since fallback when there is no ETag
	LastModified time.Time `json:"last_modified"`

	// StatusCode of the stored response, zero is replayed as 200
	StatusCode int `json:"status_code"`

	// Headers holds the storedHeaders subset. Budget headers and the
	// request id belong to one exchange and are never replayed from Redis.
	Headers http.Header `json:"headers"`

	// CachedAt is when the body was last fetched in full
	CachedAt time.Time `json:"cached_at"`
}

// storedHeaders are the response headers kept with a cached room.
var storedHeaders = []string{
	"Content-Type",
	"Cache-Control",
	"Expires",
	"ETag",
	"Last-Modified",
	"Vary",
}

// filterHeaders copies the storedHeaders present in h.
func filterHeaders(h http.Header) http.Header {
	out := make(http.Header, len(storedHeaders))
	for _, name := range storedHeaders {
		if values := h.Values(name); len(values) > 0 {
			out[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
		}
	}
	return out
}

// IsExpired reports whether the entry needs revalidation before use.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration, 0 once expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Age is how long ago the body was fetched. Entries without CachedAt
// report 0.
func (e *CacheEntry) Age() time.Duration {
	if e.CachedAt.IsZero() {
		return 0
	}
	age := time.Since(e.CachedAt)
	if age < 0 {
		return 0
	}
	return age
}
