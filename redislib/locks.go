package redislib

import (
	"time"

	"github.com/go-redsync/redsync/v4"
)

const lockRetryDelay = 250 * time.Millisecond

// IngestMutex guards the LATEST read-compare-write for one key namespace. It returns nil when
// redis is not configured. The "lock" segment keeps the mutex apart from the metadata keys it
// protects, which share its hash tag.
func IngestMutex(namespace string, expiration time.Duration, maxWait time.Duration) *redsync.Mutex {
	makeConnection()
	if rs == nil {
		return nil
	}

	tries := int(maxWait/lockRetryDelay) + 1
	return rs.NewMutex(SnapshotKey("lock", "ingest", namespace),
		redsync.WithExpiry(expiration),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(lockRetryDelay),
	)
}
