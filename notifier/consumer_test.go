package notifier

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/pool"
	"github.com/t2bot/snapshot-repo/types"
)

type capturedRequest struct {
	Method string
	Header http.Header
	Body   string
}

type webhookTarget struct {
	server   *httptest.Server
	lock     sync.Mutex
	requests []capturedRequest
	failures atomic.Int32
}

func newWebhookTarget(t *testing.T, failFirst int32) *webhookTarget {
	w := &webhookTarget{}
	w.failures.Store(failFirst)
	w.server = httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		w.lock.Lock()
		w.requests = append(w.requests, capturedRequest{Method: req.Method, Header: req.Header.Clone(), Body: string(b)})
		w.lock.Unlock()
		if w.failures.Add(-1) >= 0 {
			res.WriteHeader(http.StatusBadGateway)
			return
		}
		res.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(w.server.Close)
	return w
}

func (w *webhookTarget) Requests() []capturedRequest {
	w.lock.Lock()
	defer w.lock.Unlock()
	return append([]capturedRequest{}, w.requests...)
}

func newTestConsumer(t *testing.T, q Queue, secrets map[string]string) *Consumer {
	workers, err := pool.NewQueue(4, "test_notifications")
	require.NoError(t, err)
	t.Cleanup(func() {
		workers.Release(time.Second)
	})
	return NewConsumer(q, NewConfigSecrets(secrets), workers, ConsumerOptions{
		SourceName:      "snapshot-repo",
		UserAgent:       "snapshot-repo/test",
		BatchSize:       10,
		RetryDelay:      10 * time.Minute,
		PollInterval:    time.Second,
		DeliveryTimeout: 5 * time.Second,
	})
}

func TestConsumerDeliversWithHeaders(t *testing.T) {
	target := newWebhookTarget(t, 0)
	q := NewMemoryQueue(time.Minute, 0)
	c := newTestConsumer(t, q, map[string]string{"SLACK_TOKEN": "Bearer s3cret"})

	require.NoError(t, q.Send(rcontext.Initial(), &types.NotificationJob{
		Type:          types.SubscriberSlack,
		Url:           target.server.URL,
		AuthSecretRef: "SLACK_TOKEN",
		Hash:          "abc",
		Date:          "2024-01-02",
		FileUrl:       "https://snapshots.example.org/abc.png",
	}))

	n, err := c.ProcessBatch(rcontext.Initial())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, q.Len())

	reqs := target.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "application/json", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "snapshot-repo", reqs[0].Header.Get("X-Source"))
	assert.Equal(t, "snapshot-repo/test", reqs[0].Header.Get("User-Agent"))
	assert.Equal(t, "Bearer s3cret", reqs[0].Header.Get("Authorization"))
	assert.JSONEq(t, `{"text":"New snapshot for 2024-01-02: <https://snapshots.example.org/abc.png|abc>"}`, reqs[0].Body)
}

func TestConsumerOmitsAuthorizationWhenSecretMissing(t *testing.T) {
	target := newWebhookTarget(t, 0)
	q := NewMemoryQueue(time.Minute, 0)
	c := newTestConsumer(t, q, nil)

	require.NoError(t, q.Send(rcontext.Initial(), &types.NotificationJob{
		Type:          "generic",
		Url:           target.server.URL,
		AuthSecretRef: "SNAPSHOT_TEST_UNSET_SECRET",
		Date:          "2024-01-02",
		FileUrl:       "https://snapshots.example.org/abc.png",
	}))

	_, err := c.ProcessBatch(rcontext.Initial())
	require.NoError(t, err)

	reqs := target.Requests()
	require.Len(t, reqs, 1)
	_, present := reqs[0].Header["Authorization"]
	assert.False(t, present)
	assert.Equal(t, "text/plain; charset=utf-8", reqs[0].Header.Get("Content-Type"))
	assert.Equal(t, "Snapshot content changed on 2024-01-02: https://snapshots.example.org/abc.png", reqs[0].Body)
}

func TestConsumerRetriesFailedDeliveryAfterDelay(t *testing.T) {
	target := newWebhookTarget(t, 1)
	clock := &testClock{now: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	q := NewMemoryQueue(time.Hour, 0)
	q.SetClock(clock.Now)
	c := newTestConsumer(t, q, nil)

	require.NoError(t, q.Send(rcontext.Initial(), &types.NotificationJob{
		Type: types.SubscriberStatusFeed,
		Url:  target.server.URL,
		Hash: "abc",
		Date: "2024-01-02",
	}))

	_, err := c.ProcessBatch(rcontext.Initial())
	require.NoError(t, err)
	assert.Len(t, target.Requests(), 1)
	assert.Equal(t, 1, q.Len())

	// Not visible again until the retry delay passes
	clock.Advance(9 * time.Minute)
	n, err := c.ProcessBatch(rcontext.Initial())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	clock.Advance(time.Minute)
	n, err = c.ProcessBatch(rcontext.Initial())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, target.Requests(), 2)
	assert.Equal(t, 0, q.Len())
}

func TestConsumerMessagesAreIndependent(t *testing.T) {
	good := newWebhookTarget(t, 0)
	bad := newWebhookTarget(t, 100)
	q := NewMemoryQueue(time.Hour, 0)
	c := newTestConsumer(t, q, nil)

	require.NoError(t, q.Send(rcontext.Initial(), &types.NotificationJob{Type: types.SubscriberSlack, Url: bad.server.URL}))
	require.NoError(t, q.Send(rcontext.Initial(), &types.NotificationJob{Type: types.SubscriberSlack, Url: good.server.URL}))

	n, err := c.ProcessBatch(rcontext.Initial())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, good.Requests(), 1)
	assert.Len(t, bad.Requests(), 1)
	assert.Equal(t, 1, q.Len())
}

func TestDeliverReportsStatus(t *testing.T) {
	target := newWebhookTarget(t, 1)
	c := newTestConsumer(t, NewMemoryQueue(time.Minute, 0), nil)

	err := c.Deliver(rcontext.Initial(), &types.NotificationJob{Type: types.SubscriberSlack, Url: target.server.URL})
	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, http.StatusBadGateway, derr.StatusCode)
	assert.Equal(t, "status", derr.reason())

	assert.NoError(t, c.Deliver(rcontext.Initial(), &types.NotificationJob{Type: types.SubscriberSlack, Url: target.server.URL}))
}

func TestConsumerDefaultsUnusableOptions(t *testing.T) {
	workers, err := pool.NewQueue(1, "test_defaults")
	require.NoError(t, err)
	defer workers.Release(time.Second)

	c := NewConsumer(NewMemoryQueue(time.Minute, 0), NewConfigSecrets(nil), workers, ConsumerOptions{
		BatchSize:    0,
		PollInterval: 0,
		RetryDelay:   -1,
	})
	assert.Equal(t, 10, c.opts.BatchSize)
	assert.Equal(t, 5*time.Second, c.opts.PollInterval)
	assert.Equal(t, 10*time.Minute, c.opts.RetryDelay)
	assert.Equal(t, 30*time.Second, c.opts.DeliveryTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		c.Run(rcontext.Wrap(ctx, rcontext.Initial().Log), nil)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}
