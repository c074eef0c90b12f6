package limits

import (
	"encoding/json"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/t2bot/snapshot-repo/api/_responses"
	"github.com/t2bot/snapshot-repo/common/config"
)

// NewRequestLimiter builds a per-client token bucket limiter. Forwarded headers
// are only consulted when the deployment trusts its proxy.
func NewRequestLimiter(conf config.RateLimitConfig, trustForward bool) *limiter.Limiter {
	lmt := tollbooth.NewLimiter(conf.RequestsPerSecond, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetBurst(conf.BurstCount)
	if trustForward {
		lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})
	} else {
		lmt.SetIPLookups([]string{"RemoteAddr"})
	}

	// Uploads are authenticated, so only the public read surface is throttled.
	lmt.SetMethods([]string{"GET", "HEAD"})

	b, _ := json.Marshal(_responses.RateLimitReached())
	lmt.SetMessage(string(b))
	lmt.SetMessageContentType("application/json")
	return lmt
}
