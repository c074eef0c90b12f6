package notifier

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
)

type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

// QueueSuite checks lease semantics shared by every queue backend.
type QueueSuite struct {
	suite.Suite
	clock     *testClock
	makeQueue func(visibility time.Duration, maxDeliveries int) Queue
	dead      func(q Queue) int
}

func (s *QueueSuite) SetupTest() {
	s.clock.lock.Lock()
	s.clock.now = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s.clock.lock.Unlock()
}

func (s *QueueSuite) send(q Queue, date string) *types.NotificationJob {
	job := &types.NotificationJob{Type: types.SubscriberSlack, Url: "https://hooks.example.org/" + date, Date: date, Hash: "h-" + date}
	require.NoError(s.T(), q.Send(rcontext.Initial(), job))
	s.clock.Advance(time.Millisecond)
	return job
}

func (s *QueueSuite) TestSendAssignsIdAndReceives() {
	t := s.T()
	q := s.makeQueue(time.Minute, 0)
	job := s.send(q, "2024-01-02")
	assert.NotEmpty(t, job.Id)

	msgs, err := q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, job.Id, msgs[0].Id)
	assert.Equal(t, 1, msgs[0].Attempts)
	assert.Equal(t, "https://hooks.example.org/2024-01-02", msgs[0].Job.Url)
	assert.Equal(t, "h-2024-01-02", msgs[0].Job.Hash)
}

func (s *QueueSuite) TestReceiveIsOrderedAndBounded() {
	t := s.T()
	q := s.makeQueue(time.Minute, 0)
	first := s.send(q, "a")
	second := s.send(q, "b")
	s.send(q, "c")

	msgs, err := q.Receive(rcontext.Initial(), 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.Id, msgs[0].Id)
	assert.Equal(t, second.Id, msgs[1].Id)

	msgs, err = q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func (s *QueueSuite) TestLeasedMessagesReturnAfterVisibility() {
	t := s.T()
	q := s.makeQueue(time.Minute, 0)
	s.send(q, "a")

	msgs, err := q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msgs, err = q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	s.clock.Advance(2 * time.Minute)
	msgs, err = q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 2, msgs[0].Attempts)
}

func (s *QueueSuite) TestAckRemoves() {
	t := s.T()
	q := s.makeQueue(time.Second, 0)
	s.send(q, "a")

	msgs, err := q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	require.NoError(t, q.Ack(rcontext.Initial(), msgs[0].Id))

	s.clock.Advance(time.Hour)
	msgs, err = q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// retrying an acked message must not resurrect it
	require.NoError(t, q.Retry(rcontext.Initial(), "whatever", time.Second))
	s.clock.Advance(time.Hour)
	msgs, err = q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func (s *QueueSuite) TestRetryDelaysRedelivery() {
	t := s.T()
	q := s.makeQueue(time.Hour, 0)
	s.send(q, "a")

	msgs, err := q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	require.NoError(t, q.Retry(rcontext.Initial(), msgs[0].Id, 10*time.Minute))

	s.clock.Advance(9 * time.Minute)
	msgs, err = q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	s.clock.Advance(2 * time.Minute)
	msgs, err = q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, 2, msgs[0].Attempts)
}

func (s *QueueSuite) TestDeadLetterAfterMaxDeliveries() {
	t := s.T()
	q := s.makeQueue(time.Minute, 2)
	s.send(q, "a")

	for i := 0; i < 2; i++ {
		msgs, err := q.Receive(rcontext.Initial(), 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		s.clock.Advance(2 * time.Minute)
	}

	msgs, err := q.Receive(rcontext.Initial(), 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Equal(t, 1, s.dead(q))
}

func (s *QueueSuite) TestUnlimitedDeliveries() {
	t := s.T()
	q := s.makeQueue(time.Minute, 0)
	s.send(q, "a")

	for i := 1; i <= 20; i++ {
		msgs, err := q.Receive(rcontext.Initial(), 10)
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, i, msgs[0].Attempts)
		s.clock.Advance(2 * time.Minute)
	}
	assert.Equal(t, 0, s.dead(q))
}

func TestMemoryQueueSuite(t *testing.T) {
	clock := &testClock{}
	suite.Run(t, &QueueSuite{
		clock: clock,
		makeQueue: func(visibility time.Duration, maxDeliveries int) Queue {
			q := NewMemoryQueue(visibility, maxDeliveries)
			q.SetClock(clock.Now)
			return q
		},
		dead: func(q Queue) int {
			return len(q.(*MemoryQueue).Dead())
		},
	})
}

func TestRedisQueueSuite(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	clock := &testClock{}
	suite.Run(t, &QueueSuite{
		clock: clock,
		makeQueue: func(visibility time.Duration, maxDeliveries int) Queue {
			server.FlushAll()
			q := NewRedisQueue(client, "test", visibility, maxDeliveries)
			q.now = clock.Now
			q.publish = nil
			return q
		},
		dead: func(q Queue) int {
			n, err := client.LLen(rcontext.Initial(), q.(*RedisQueue).DeadKey()).Result()
			require.NoError(t, err)
			return int(n)
		},
	})
}
