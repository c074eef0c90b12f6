package redislib

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	rsredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/t2bot/snapshot-repo/common/config"
)

const dialTimeout = 10 * time.Second

var connectionLock = &sync.Once{}
var ring *redis.Ring
var rs *redsync.Redsync

// Shard clients back the redsync pools; the ring has its own connections per shard.
var shardClients = make([]*redis.Client, 0)

func makeConnection() {
	if ring != nil {
		return
	}

	connectionLock.Do(func() {
		conf := config.Get().Redis
		if !conf.Enabled || len(conf.Shards) == 0 {
			return
		}

		addresses := make(map[string]string, len(conf.Shards))
		pools := make([]rsredis.Pool, 0, len(conf.Shards))
		for _, shard := range conf.Shards {
			addresses[shard.Name] = shard.Address
			client := redis.NewClient(&redis.Options{
				Addr:        shard.Address,
				DB:          conf.DbNum,
				DialTimeout: dialTimeout,
			})
			shardClients = append(shardClients, client)
			pools = append(pools, goredis.NewPool(client))
		}
		ring = redis.NewRing(&redis.RingOptions{
			Addrs:       addresses,
			DB:          conf.DbNum,
			DialTimeout: dialTimeout,
		})
		rs = redsync.New(pools...)
	})
}

// Client returns the shared ring, or nil when redis is not configured. Keys built with TaggedKey
// keep multi-key commands on a single shard.
func Client() redis.Cmdable {
	makeConnection()
	if ring == nil {
		return nil
	}
	return ring
}

// Ping checks every shard. It is a no-op when redis is not configured.
func Ping(ctx context.Context) error {
	makeConnection()
	if ring == nil {
		return nil
	}
	return ring.ForEachShard(ctx, func(ctx context.Context, shard *redis.Client) error {
		if err := shard.Ping(ctx).Err(); err != nil {
			return errors.New(shard.Options().Addr + ": " + err.Error())
		}
		return nil
	})
}

func Stop() {
	closeSubscriptions()
	if ring != nil {
		_ = ring.Close()
	}
	for _, c := range shardClients {
		_ = c.Close()
	}
	ring = nil
	rs = nil
	shardClients = make([]*redis.Client, 0)
	connectionLock = &sync.Once{}
}
