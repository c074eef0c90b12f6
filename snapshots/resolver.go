package snapshots

import (
	"fmt"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
	"golang.org/x/sync/singleflight"
)

type MetadataGetter interface {
	Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error)
}

type BlobChecker interface {
	Exists(ctx rcontext.RequestContext, hash string) (bool, error)
}

// Resolver turns a date key into a record backed by both a metadata entry and a stored blob.
// It never writes, so it is safe to share between requests.
type Resolver struct {
	meta    MetadataGetter
	blobs   BlobChecker
	baseUrl string
	ext     string
	sf      *singleflight.Group
}

func NewResolver(meta MetadataGetter, blobs BlobChecker, baseUrl string, ext string) *Resolver {
	return &Resolver{
		meta:    meta,
		blobs:   blobs,
		baseUrl: baseUrl,
		ext:     ext,
		sf:      new(singleflight.Group),
	}
}

// Resolve looks up a date key. Concurrent lookups of the same key share one trip to the stores.
func (r *Resolver) Resolve(ctx rcontext.RequestContext, dateKey string) (*Record, error) {
	if dateKey == "" {
		dateKey = types.LatestKey
	}

	v, err, _ := r.sf.Do(dateKey, func() (interface{}, error) {
		return r.resolve(ctx.Detached(), dateKey)
	})
	if err != nil {
		return nil, err
	}
	record := *(v.(*Record))
	return &record, nil
}

func (r *Resolver) resolve(ctx rcontext.RequestContext, dateKey string) (*Record, error) {
	entry, err := r.meta.Get(ctx, dateKey)
	if err != nil {
		return nil, fmt.Errorf("error reading metadata for %s: %w", dateKey, err)
	}
	if entry == nil {
		return nil, &NotFoundError{Key: dateKey, Reason: ReasonKeyMissing}
	}

	// A metadata entry without its blob is orphaned (expired, or the upload never finished).
	exists, err := r.blobs.Exists(ctx, entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("error checking blob %s: %w", entry.Hash, err)
	}
	if !exists {
		ctx.Log.Warnf("Metadata for %s points at missing blob %s", dateKey, entry.Hash)
		return nil, &NotFoundError{Key: dateKey, Reason: ReasonObjectMissing}
	}

	date := dateKey
	if entry.Date != "" {
		date = entry.Date
	}

	return &Record{
		Hash:    entry.Hash,
		Date:    date,
		FileUrl: FileUrl(r.baseUrl, entry.Hash, r.ext),
	}, nil
}

func (r *Resolver) FileUrl(hash string) string {
	return FileUrl(r.baseUrl, hash, r.ext)
}
