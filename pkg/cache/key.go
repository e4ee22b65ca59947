package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces all cache keys in Redis.
const KeyPrefix = "tour"

// CacheKey identifies a cached room server response.
type CacheKey struct {
	// Endpoint is the request path (e.g. "/room/3")
	Endpoint string

	// QueryParams are the query parameters of the request
	QueryParams url.Values

	// Origin distinguishes servers sharing one Redis (scheme://host, optional)
	Origin string
}

// String generates a deterministic cache key string.
// Format: tour[:origin]:endpoint:query1=val1:query2=val2
//
// Example:
//
//	tour:room/3
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	if k.Origin != "" {
		parts = append(parts, strings.TrimRight(k.Origin, "/"))
	}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
