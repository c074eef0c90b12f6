package custom

import (
	"net/http"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/common/version"
)

type VersionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
}

func GetVersion(r *http.Request, rctx rcontext.RequestContext) interface{} {
	version.SetDefaults()
	return &VersionResponse{
		Version:   version.Version,
		GitCommit: version.GitCommit,
	}
}
