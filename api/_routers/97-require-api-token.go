package _routers

import (
	"crypto/subtle"
	"net/http"

	"github.com/t2bot/snapshot-repo/api/_responses"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/common/rcontext"
)

// RequireApiToken rejects the request with a plain 403 unless Authorization carries the configured
// upload token. It runs before the generator so nothing is written on failure.
func RequireApiToken(generator GeneratorFn) GeneratorFn {
	return func(r *http.Request, ctx rcontext.RequestContext) interface{} {
		expected := config.Get().Uploads.ApiToken
		provided := r.Header.Get("Authorization")
		if expected == "" {
			ctx.Log.Warn("Rejecting upload: no API token is configured")
			return _responses.Unauthorized()
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) != 1 {
			ctx.Log.Warn("Rejecting upload: wrong API token")
			return _responses.Unauthorized()
		}
		return generator(r, ctx)
	}
}
