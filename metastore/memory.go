package metastore

import (
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
)

type MemoryStore struct {
	namespace string
	entries   *cache.Cache
	webhooks  map[string]*types.WebhookSubscription
	lock      *sync.RWMutex
}

func NewMemoryStore(namespace string) *MemoryStore {
	return &MemoryStore{
		namespace: namespace,
		entries:   cache.New(cache.NoExpiration, 10*time.Minute),
		webhooks:  make(map[string]*types.WebhookSubscription),
		lock:      &sync.RWMutex{},
	}
}

func (s *MemoryStore) Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error) {
	item, expiresAt, found := s.entries.GetWithExpiration(namespaced(s.namespace, key))
	if !found {
		return nil, nil
	}
	stored := item.(types.MetadataEntry)
	stored.ExpiresAt = expiresAt
	return &stored, nil
}

func (s *MemoryStore) Put(ctx rcontext.RequestContext, key string, hash string, date string, ttl time.Duration) error {
	expiration := cache.NoExpiration
	if ttl > 0 {
		expiration = ttl
	}
	s.entries.Set(namespaced(s.namespace, key), types.MetadataEntry{
		Key:  key,
		Hash: hash,
		Date: date,
	}, expiration)
	return nil
}

func (s *MemoryStore) List(ctx rcontext.RequestContext) ([]*types.MetadataEntry, error) {
	items := s.entries.Items()
	entries := make([]*types.MetadataEntry, 0, len(items))
	for k, item := range items {
		if _, ok := stripNamespace(s.namespace, k); !ok {
			continue
		}
		stored := item.Object.(types.MetadataEntry)
		if item.Expiration > 0 {
			stored.ExpiresAt = time.Unix(0, item.Expiration)
		}
		entries = append(entries, &stored)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

func (s *MemoryStore) Webhooks(ctx rcontext.RequestContext) ([]*types.WebhookSubscription, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	subs := make([]*types.WebhookSubscription, 0, len(s.webhooks))
	for _, w := range s.webhooks {
		c := *w
		subs = append(subs, &c)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Id < subs[j].Id
	})
	return subs, nil
}

func (s *MemoryStore) PutWebhook(ctx rcontext.RequestContext, sub *types.WebhookSubscription) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	c := *sub
	s.webhooks[sub.Id] = &c
	return nil
}
