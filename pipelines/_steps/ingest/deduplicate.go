package ingest

import (
	"fmt"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
)

type LatestGetter interface {
	Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error)
}

// IsChanged reports whether hash differs from what LATEST points at. An empty LATEST is a change.
func IsChanged(ctx rcontext.RequestContext, meta LatestGetter, hash string) (bool, error) {
	latest, err := meta.Get(ctx, types.LatestKey)
	if err != nil {
		return false, fmt.Errorf("error reading %s: %w", types.LatestKey, err)
	}
	if latest == nil {
		ctx.Log.Info("No current snapshot - treating upload as new content")
		return true, nil
	}
	if latest.Hash == hash {
		ctx.Log.Infof("Upload matches current snapshot %s (from %s)", hash, latest.Date)
		return false, nil
	}
	return true, nil
}
