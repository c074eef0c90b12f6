package redislib

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/t2bot/snapshot-repo/common/rcontext"
)

var subscribeMutex = new(sync.Mutex)
var subscriptions = make([]*redis.PubSub, 0)

func Publish(ctx rcontext.RequestContext, channel string, payload string) error {
	makeConnection()
	if ring == nil {
		return nil
	}

	if ring.PoolStats().TotalConns == 0 {
		ctx.Log.Debug("Not publishing to Redis - no connections available")
		return nil
	}

	r := ring.Publish(ctx.Context, channel, payload)
	if r.Err() != nil {
		if errors.Is(r.Err(), redis.Nil) {
			ctx.Log.Debug("Not publishing to Redis - no connections available")
			return nil
		}
		return r.Err()
	}
	return nil
}

// Subscribe returns a channel of payloads published to channel, or nil when redis is not enabled.
// The returned channel closes when the connection is stopped.
func Subscribe(channel string) <-chan string {
	makeConnection()
	if ring == nil {
		return nil
	}

	sub := ring.Subscribe(context.Background(), channel)
	subscribeMutex.Lock()
	subscriptions = append(subscriptions, sub)
	subscribeMutex.Unlock()

	ch := make(chan string)
	go func() {
		defer close(ch)
		for val := range sub.Channel() {
			ch <- val.Payload
		}
	}()
	return ch
}

func closeSubscriptions() {
	subscribeMutex.Lock()
	defer subscribeMutex.Unlock()
	for _, sub := range subscriptions {
		_ = sub.Close()
	}
	subscriptions = make([]*redis.PubSub, 0)
}
