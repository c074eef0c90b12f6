package notifier

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
	"github.com/t2bot/snapshot-repo/redislib"
	"github.com/t2bot/snapshot-repo/types"
)

// Leases a batch atomically. Messages past maxDeliveries move to the dead letter list.
// Returns {deadCount, id1, body1, attempts1, id2, ...}.
var leaseScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[3]))
local visibleAt = tonumber(ARGV[1]) + tonumber(ARGV[2])
local maxDeliveries = tonumber(ARGV[4])
local out = {0}
for _, id in ipairs(ids) do
	local body = redis.call('HGET', KEYS[2], id)
	if not body then
		redis.call('ZREM', KEYS[1], id)
		redis.call('HDEL', KEYS[3], id)
	else
		local attempts = redis.call('HINCRBY', KEYS[3], id, 1)
		if maxDeliveries > 0 and attempts > maxDeliveries then
			redis.call('ZREM', KEYS[1], id)
			redis.call('HDEL', KEYS[2], id)
			redis.call('HDEL', KEYS[3], id)
			redis.call('RPUSH', KEYS[4], body)
			out[1] = out[1] + 1
		else
			redis.call('ZADD', KEYS[1], visibleAt, id)
			table.insert(out, id)
			table.insert(out, body)
			table.insert(out, attempts)
		end
	end
end
return out
`)

type RedisQueue struct {
	client        redis.Cmdable
	name          string
	visibility    time.Duration
	maxDeliveries int
	now           func() time.Time
	publish       func(ctx rcontext.RequestContext, channel string, payload string) error
}

func NewRedisQueue(client redis.Cmdable, name string, visibility time.Duration, maxDeliveries int) *RedisQueue {
	return &RedisQueue{
		client:        client,
		name:          name,
		visibility:    visibility,
		maxDeliveries: maxDeliveries,
		now:           time.Now,
		publish:       redislib.Publish,
	}
}

func (q *RedisQueue) key(suffix string) string {
	return redislib.TaggedKey("queue:"+q.name, suffix)
}

func (q *RedisQueue) pendingKey() string  { return q.key("pending") }
func (q *RedisQueue) jobsKey() string     { return q.key("jobs") }
func (q *RedisQueue) attemptsKey() string { return q.key("attempts") }
func (q *RedisQueue) DeadKey() string     { return q.key("dead") }

func (q *RedisQueue) Send(ctx rcontext.RequestContext, job *types.NotificationJob) error {
	if job.Id == "" {
		job.Id = uuid.NewString()
	}
	body, err := job.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = q.client.TxPipelined(ctx.Context, func(p redis.Pipeliner) error {
		p.HSet(ctx.Context, q.jobsKey(), job.Id, body)
		p.ZAdd(ctx.Context, q.pendingKey(), redis.Z{Score: float64(q.now().UnixMilli()), Member: job.Id})
		return nil
	})
	if err != nil {
		return err
	}
	if q.publish != nil {
		if err = q.publish(ctx, wakeupChannel(q.name), job.Id); err != nil {
			ctx.Log.Debug("Non-fatal error publishing queue wakeup: ", err)
		}
	}
	return nil
}

func (q *RedisQueue) Receive(ctx rcontext.RequestContext, max int) ([]*Message, error) {
	res, err := leaseScript.Run(ctx.Context, q.client,
		[]string{q.pendingKey(), q.jobsKey(), q.attemptsKey(), q.DeadKey()},
		q.now().UnixMilli(), q.visibility.Milliseconds(), max, q.maxDeliveries,
	).Slice()
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return []*Message{}, nil
	}

	if dead, ok := res[0].(int64); ok && dead > 0 {
		ctx.Log.Warnf("Moved %d notification(s) to the dead letter list of %s", dead, q.name)
		metrics.NotificationsDeadLettered.With(prometheus.Labels{"queue": q.name}).Add(float64(dead))
	}

	messages := make([]*Message, 0, (len(res)-1)/3)
	for i := 1; i+2 < len(res); i += 3 {
		id := fmt.Sprint(res[i])
		body := fmt.Sprint(res[i+1])
		attempts, _ := strconv.Atoi(fmt.Sprint(res[i+2]))

		job := &types.NotificationJob{}
		if err = job.UnmarshalBinary([]byte(body)); err != nil {
			ctx.Log.Errorf("Dropping unreadable notification %s: %v", id, err)
			if ackErr := q.Ack(ctx, id); ackErr != nil {
				ctx.Log.Warn("Error dropping unreadable notification: ", ackErr)
			}
			continue
		}
		job.Id = id
		messages = append(messages, &Message{Id: id, Job: job, Attempts: attempts})
	}
	return messages, nil
}

func (q *RedisQueue) Ack(ctx rcontext.RequestContext, id string) error {
	_, err := q.client.TxPipelined(ctx.Context, func(p redis.Pipeliner) error {
		p.ZRem(ctx.Context, q.pendingKey(), id)
		p.HDel(ctx.Context, q.jobsKey(), id)
		p.HDel(ctx.Context, q.attemptsKey(), id)
		return nil
	})
	return err
}

func (q *RedisQueue) Retry(ctx rcontext.RequestContext, id string, delay time.Duration) error {
	// XX: a message acked (or dead lettered) in the meantime must not come back.
	return q.client.ZAddXX(ctx.Context, q.pendingKey(), redis.Z{
		Score:  float64(q.now().Add(delay).UnixMilli()),
		Member: id,
	}).Err()
}
