package internal_cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Key builds the cache key for a request: the method, the lowercased host, the path and the query
// with its parameters sorted. HEAD shares entries with GET.
func Key(r *http.Request) string {
	method := r.Method
	if method == http.MethodHead {
		method = http.MethodGet
	}
	host := strings.ToLower(r.Host)
	if host == "" && r.URL != nil {
		host = strings.ToLower(r.URL.Host)
	}
	key := method + " " + host + r.URL.Path
	if q := r.URL.Query(); len(q) > 0 {
		key += "?" + q.Encode() // Encode sorts by key
	}
	return key
}

// TtlFromHeaders reads the shared-cache lifetime from Cache-Control, preferring s-maxage. Zero means
// the response must not be stored.
func TtlFromHeaders(h http.Header) time.Duration {
	var maxAge, sMaxAge time.Duration
	for _, directive := range strings.Split(h.Get("Cache-Control"), ",") {
		name, value, _ := strings.Cut(strings.TrimSpace(directive), "=")
		switch strings.ToLower(name) {
		case "no-store", "private", "no-cache":
			return 0
		case "s-maxage":
			sMaxAge = parseSeconds(value)
		case "max-age":
			maxAge = parseSeconds(value)
		}
	}
	if sMaxAge > 0 {
		return sMaxAge
	}
	return maxAge
}

func parseSeconds(v string) time.Duration {
	i, err := strconv.Atoi(strings.Trim(v, `"`))
	if err != nil || i <= 0 {
		return 0
	}
	return time.Duration(i) * time.Second
}
