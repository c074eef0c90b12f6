package metastore

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/redislib"
	"github.com/t2bot/snapshot-repo/types"
)

// Index score for entries that never expire.
const noExpiryScore = float64(1 << 53)

const fieldHash = "hash"
const fieldDate = "date"

// RedisStore keeps every key under the snapshot hash tag so a redis.Ring places them on one shard.
type RedisStore struct {
	client    redis.Cmdable
	namespace string
}

func NewRedisStore(client redis.Cmdable, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) entryKey(key string) string {
	return redislib.SnapshotKey("meta", namespaced(s.namespace, key))
}

func (s *RedisStore) indexKey() string {
	return redislib.SnapshotKey("index", s.namespace)
}

func (s *RedisStore) webhooksKey() string {
	return redislib.SnapshotKey("webhooks")
}

func (s *RedisStore) Get(ctx rcontext.RequestContext, key string) (*types.MetadataEntry, error) {
	var fields *redis.MapStringStringCmd
	var ttl *redis.DurationCmd
	_, err := s.client.Pipelined(ctx.Context, func(p redis.Pipeliner) error {
		fields = p.HGetAll(ctx.Context, s.entryKey(key))
		ttl = p.PTTL(ctx.Context, s.entryKey(key))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	return toEntry(key, fields.Val(), ttl.Val()), nil
}

func toEntry(key string, fields map[string]string, ttl time.Duration) *types.MetadataEntry {
	hash, ok := fields[fieldHash]
	if !ok {
		return nil
	}
	entry := &types.MetadataEntry{
		Key:  key,
		Hash: hash,
		Date: fields[fieldDate],
	}
	if ttl > 0 {
		entry.ExpiresAt = time.Now().Add(ttl)
	}
	return entry
}

func (s *RedisStore) Put(ctx rcontext.RequestContext, key string, hash string, date string, ttl time.Duration) error {
	entryKey := s.entryKey(key)
	score := noExpiryScore
	if ttl > 0 {
		score = float64(time.Now().Add(ttl).UnixMilli())
	}

	_, err := s.client.TxPipelined(ctx.Context, func(p redis.Pipeliner) error {
		p.Del(ctx.Context, entryKey)
		if date != "" {
			p.HSet(ctx.Context, entryKey, fieldHash, hash, fieldDate, date)
		} else {
			p.HSet(ctx.Context, entryKey, fieldHash, hash)
		}
		if ttl > 0 {
			p.PExpire(ctx.Context, entryKey, ttl)
		}
		p.ZAdd(ctx.Context, s.indexKey(), redis.Z{Score: score, Member: key})
		return nil
	})
	return err
}

func (s *RedisStore) List(ctx rcontext.RequestContext) ([]*types.MetadataEntry, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.client.ZRemRangeByScore(ctx.Context, s.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, err
	}
	keys, err := s.client.ZRange(ctx.Context, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*types.MetadataEntry{}, nil
	}

	fields := make([]*redis.MapStringStringCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	_, err = s.client.Pipelined(ctx.Context, func(p redis.Pipeliner) error {
		for i, k := range keys {
			fields[i] = p.HGetAll(ctx.Context, s.entryKey(k))
			ttls[i] = p.PTTL(ctx.Context, s.entryKey(k))
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	entries := make([]*types.MetadataEntry, 0, len(keys))
	stale := make([]interface{}, 0)
	for i, k := range keys {
		entry := toEntry(k, fields[i].Val(), ttls[i].Val())
		if entry == nil {
			stale = append(stale, k)
			continue
		}
		entries = append(entries, entry)
	}
	if len(stale) > 0 {
		// Expired between the prune and the read; drop them from the index too.
		if err = s.client.ZRem(context.WithoutCancel(ctx.Context), s.indexKey(), stale...).Err(); err != nil {
			ctx.Log.Warn("Non-fatal error pruning metadata index: ", err)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

func (s *RedisStore) Webhooks(ctx rcontext.RequestContext) ([]*types.WebhookSubscription, error) {
	vals, err := s.client.HGetAll(ctx.Context, s.webhooksKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	subs := make([]*types.WebhookSubscription, 0, len(vals))
	for id, raw := range vals {
		sub := &types.WebhookSubscription{}
		if err = sub.UnmarshalBinary([]byte(raw)); err != nil {
			ctx.Log.Warnf("Skipping unreadable webhook subscription %s: %v", id, err)
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Id < subs[j].Id
	})
	return subs, nil
}

func (s *RedisStore) PutWebhook(ctx rcontext.RequestContext, sub *types.WebhookSubscription) error {
	return s.client.HSet(ctx.Context, s.webhooksKey(), sub.Id, sub).Err()
}
