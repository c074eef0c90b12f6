package metastore

import (
	"strings"
	"time"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/database"
	"github.com/t2bot/snapshot-repo/types"
)

type PostgresStore struct {
	db        *database.Database
	namespace string
}

func NewPostgresStore(db *database.Database, namespace string) *PostgresStore {
	return &PostgresStore{db: db, namespace: namespace}
}

func (s *PostgresStore) Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error) {
	record, err := s.db.Keys.Prepare(ctx).Get(namespaced(s.namespace, key))
	if err != nil || record == nil {
		return nil, err
	}
	return s.toEntry(record), nil
}

func (s *PostgresStore) toEntry(record *database.DbSnapshotKey) *types.MetadataEntry {
	key, _ := stripNamespace(s.namespace, record.Key)
	entry := &types.MetadataEntry{
		Key:  key,
		Hash: record.Hash,
		Date: record.CanonicalDate,
	}
	if record.ExpiresTs > 0 {
		entry.ExpiresAt = time.UnixMilli(record.ExpiresTs)
	}
	return entry
}

func (s *PostgresStore) Put(ctx rcontext.RequestContext, key string, hash string, date string, ttl time.Duration) error {
	expiresTs := int64(0)
	if ttl > 0 {
		expiresTs = time.Now().Add(ttl).UnixMilli()
	}
	return s.db.Keys.Prepare(ctx).Upsert(&database.DbSnapshotKey{
		Key:           namespaced(s.namespace, key),
		Hash:          hash,
		CanonicalDate: date,
		ExpiresTs:     expiresTs,
	})
}

func (s *PostgresStore) List(ctx rcontext.RequestContext) ([]*types.MetadataEntry, error) {
	table := s.db.Keys.Prepare(ctx)
	if removed, err := table.DeleteExpired(); err != nil {
		ctx.Log.Warn("Non-fatal error removing expired snapshot keys: ", err)
	} else if removed > 0 {
		ctx.Log.Debugf("Removed %d expired snapshot keys", removed)
	}

	prefix := ""
	if s.namespace != "" {
		prefix = s.namespace + ":"
	}
	records, err := table.ByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	entries := make([]*types.MetadataEntry, 0, len(records))
	for _, r := range records {
		// Namespaced keys belong to other deployments sharing the table.
		if s.namespace == "" && strings.Contains(r.Key, ":") {
			continue
		}
		entries = append(entries, s.toEntry(r))
	}
	return entries, nil
}

func (s *PostgresStore) Webhooks(ctx rcontext.RequestContext) ([]*types.WebhookSubscription, error) {
	records, err := s.db.Webhooks.Prepare(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	subs := make([]*types.WebhookSubscription, 0, len(records))
	for _, r := range records {
		subs = append(subs, &types.WebhookSubscription{
			Id:            r.Id,
			Type:          types.SubscriberType(r.Type),
			Url:           r.Url,
			AuthSecretRef: r.AuthSecretRef,
		})
	}
	return subs, nil
}

func (s *PostgresStore) PutWebhook(ctx rcontext.RequestContext, sub *types.WebhookSubscription) error {
	return s.db.Webhooks.Prepare(ctx).Upsert(&database.DbWebhook{
		Id:            sub.Id,
		Type:          string(sub.Type),
		Url:           sub.Url,
		AuthSecretRef: sub.AuthSecretRef,
	})
}
