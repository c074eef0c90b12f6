package r0

import (
	"io"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/pipelines/pipeline_ingest"
	"github.com/t2bot/snapshot-repo/snapshots"
	"github.com/t2bot/snapshot-repo/types"
)

type Resolver interface {
	Resolve(ctx rcontext.RequestContext, dateKey string) (*snapshots.Record, error)
}

type MetadataLister interface {
	List(ctx rcontext.RequestContext) ([]*types.MetadataEntry, error)
}

type Ingester interface {
	Execute(ctx rcontext.RequestContext, date string, hash string, data []byte) (*pipeline_ingest.Result, error)
}

type BlobReader interface {
	Download(ctx rcontext.RequestContext, hash string) (io.ReadSeekCloser, error)
}

// Handlers serves the snapshot routes. Blobs may be nil when blobs are not served locally.
type Handlers struct {
	Resolver        Resolver
	Meta            MetadataLister
	Ingest          Ingester
	Blobs           BlobReader
	Extension       string
	CacheTtlSeconds int
	MaxUploadBytes  int64
}
