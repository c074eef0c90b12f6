package internal_cache

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/t2bot/snapshot-repo/common/rcontext"
)

// CachedResponse is a stored copy of a complete HTTP response.
type CachedResponse struct {
	StatusCode int         `json:"status"`
	Header     http.Header `json:"headers"`
	Body       []byte      `json:"body"`
}

func (r *CachedResponse) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *CachedResponse) UnmarshalBinary(b []byte) error {
	return json.Unmarshal(b, r)
}

// ResponseCache is shared by every read route. A miss is a nil response with a nil error.
type ResponseCache interface {
	Get(ctx rcontext.RequestContext, key string) (*CachedResponse, error)
	Set(ctx rcontext.RequestContext, key string, resp *CachedResponse, ttl time.Duration) error
	Stop()
}
