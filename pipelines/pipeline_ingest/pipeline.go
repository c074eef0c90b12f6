package pipeline_ingest

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metastore"
	"github.com/t2bot/snapshot-repo/metrics"
	"github.com/t2bot/snapshot-repo/pipelines/_steps/ingest"
	"github.com/t2bot/snapshot-repo/types"
)

type BlobWriter interface {
	Upload(ctx rcontext.RequestContext, hash string, data []byte) error
}

type Options struct {
	// HistoryTtl is how long dated entries live.
	HistoryTtl      time.Duration
	VerifyHash      bool
	EnqueueAttempts int
	// EnqueueBackOff is the first pause between enqueue attempts.
	EnqueueBackOff time.Duration
	LockName       string
}

type Pipeline struct {
	meta    metastore.Store
	blobs   BlobWriter
	queue   ingest.Sender
	fileUrl func(hash string) string
	lock    ingest.LockFn
	opts    Options
}

// New builds a pipeline. A nil queue disables notifications; a nil lock runs without one.
func New(meta metastore.Store, blobs BlobWriter, queue ingest.Sender, fileUrl func(hash string) string, lock ingest.LockFn, opts Options) *Pipeline {
	if lock == nil {
		lock = ingest.NoLock
	}
	return &Pipeline{
		meta:    meta,
		blobs:   blobs,
		queue:   queue,
		fileUrl: fileUrl,
		lock:    lock,
		opts:    opts,
	}
}

type Result struct {
	Changed  bool
	Enqueued int
	Failed   int
}

// Execute ingests one snapshot. Callers must have authorised the request already.
func (p *Pipeline) Execute(ctx rcontext.RequestContext, date string, hash string, data []byte) (*Result, error) {
	ctx = ctx.LogWithFields(logrus.Fields{"snapshotDate": date, "snapshotHash": hash})
	ctx.Log.Infof("Ingesting snapshot (%s)", humanize.Bytes(uint64(len(data))))

	// Step 1: Check the bytes are what the caller says they are
	if p.opts.VerifyHash {
		if err := ingest.VerifyHash(data, hash); err != nil {
			return nil, err
		}
	}

	// Step 2: Serialise against other ingests
	unlockFn, err := p.lock(ctx, p.opts.LockName)
	if err != nil {
		return nil, err
	}
	//goland:noinspection GoUnhandledErrorResult
	defer unlockFn()

	// Step 3: Compare with LATEST
	changed, err := ingest.IsChanged(ctx, p.meta, hash)
	if err != nil {
		return nil, err
	}

	// Step 4: Store the blob. Nothing points at it yet, so a failure here leaves no trace.
	if changed {
		if err = p.blobs.Upload(ctx, hash, data); err != nil {
			return nil, fmt.Errorf("error storing snapshot blob: %w", err)
		}
	}

	// Step 5: Move LATEST and record the dated entry
	if err = p.meta.Put(ctx, types.LatestKey, hash, date, 0); err != nil {
		return nil, fmt.Errorf("error updating %s: %w", types.LatestKey, err)
	}
	if err = p.meta.Put(ctx, date, hash, "", p.opts.HistoryTtl); err != nil {
		return nil, fmt.Errorf("error writing dated entry: %w", err)
	}

	metrics.Ingests.With(prometheus.Labels{"changed": fmt.Sprint(changed)}).Inc()
	result := &Result{Changed: changed}
	if !changed || p.queue == nil {
		return result, nil
	}

	// Step 6: Tell the subscribers
	subs, err := p.meta.Webhooks(ctx)
	if err != nil {
		// The snapshot is published; only the notifications are lost.
		ctx.Log.Error("Error listing webhook subscriptions: ", err)
		sentry.CaptureException(err)
		return result, nil
	}
	fanOut := ingest.FanOut(ctx, p.queue, subs, types.NotificationJob{
		Hash:    hash,
		Date:    date,
		FileUrl: p.fileUrl(hash),
	}, p.opts.EnqueueAttempts, p.opts.EnqueueBackOff)
	result.Enqueued = fanOut.Enqueued
	result.Failed = fanOut.Failed
	ctx.Log.Infof("Queued %d notification(s), %d failed", fanOut.Enqueued, fanOut.Failed)
	return result, nil
}
