package custom

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/t2bot/snapshot-repo/api/_responses"
	"github.com/t2bot/snapshot-repo/api/_routers"
	"github.com/t2bot/snapshot-repo/common/rcontext"
)

// Probe checks that one dependency is reachable.
type Probe func(ctx rcontext.RequestContext) error

type HealthzResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

const probeTimeout = 5 * time.Second

func Healthz(probes map[string]Probe) _routers.GeneratorFn {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(r *http.Request, rctx rcontext.RequestContext) interface{} {
		res := &HealthzResponse{OK: true, Checks: make(map[string]string)}
		for _, name := range names {
			ctx, cancel := context.WithTimeout(rctx.Context, probeTimeout)
			err := probes[name](rcontext.Wrap(ctx, rctx.Log.WithField("probe", name)))
			cancel()
			if err != nil {
				rctx.Log.Warnf("Health probe %s failed: %v", name, err)
				res.OK = false
				res.Checks[name] = err.Error()
				continue
			}
			res.Checks[name] = "ok"
		}
		if !res.OK {
			return _responses.ServiceUnavailable("unhealthy: " + failing(res.Checks))
		}
		return res
	}
}

func failing(checks map[string]string) string {
	names := make([]string, 0)
	for name, status := range checks {
		if status != "ok" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
