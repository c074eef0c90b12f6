package metastore

import (
	"time"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
)

// Store holds one content hash per date key plus the reserved LATEST pointer. A missing key
// is reported as a nil entry and a nil error.
type Store interface {
	Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error)
	// Put replaces the entry at key. An empty date stores no canonical date; a zero ttl never expires.
	Put(ctx rcontext.RequestContext, key string, hash string, date string, ttl time.Duration) error
	// List returns every live entry, LATEST included.
	List(ctx rcontext.RequestContext) ([]*types.MetadataEntry, error)

	Webhooks(ctx rcontext.RequestContext) ([]*types.WebhookSubscription, error)
	PutWebhook(ctx rcontext.RequestContext, sub *types.WebhookSubscription) error
}

func namespaced(namespace string, key string) string {
	if namespace == "" {
		return key
	}
	return namespace + ":" + key
}

func stripNamespace(namespace string, key string) (string, bool) {
	if namespace == "" {
		return key, true
	}
	prefix := namespace + ":"
	if len(key) < len(prefix) || key[:len(prefix)] != prefix {
		return "", false
	}
	return key[len(prefix):], true
}
