package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/redislib"
)

const lockExpiry = 5 * time.Minute
const maxLockAttemptTime = 30 * time.Second

// LockFn takes the ingest lock and returns its release function.
type LockFn func(ctx rcontext.RequestContext, name string) (func() error, error)

// LockForIngest serialises the read-compare-write of LATEST across processes.
func LockForIngest(ctx rcontext.RequestContext, name string) (func() error, error) {
	mutex := redislib.IngestMutex(name, lockExpiry, maxLockAttemptTime)
	if mutex == nil {
		ctx.Log.Warn("Continuing ingest without lock! Set up Redis to make this warning go away.")
		return NoLock(ctx, name)
	}

	// redsync retries internally until maxLockAttemptTime has passed
	if err := mutex.LockContext(ctx.Context); err != nil {
		return nil, fmt.Errorf("failed to acquire ingest lock %s: %w", mutex.Name(), err)
	}
	ctx.Log.Debugf("Lock %s acquired until %s", mutex.Name(), mutex.Until().UTC())
	return func() error {
		ctx.Log.Debug("Unlocking ingest lock")
		// Background context so a cancelled request can't keep the lock held
		if ok, err := mutex.UnlockContext(context.Background()); !ok || err != nil {
			ctx.Log.Warn("Did not get quorum on unlock: ", err)
			return err
		}
		return nil
	}, nil
}

func NoLock(ctx rcontext.RequestContext, name string) (func() error, error) {
	return func() error { return nil }, nil
}
