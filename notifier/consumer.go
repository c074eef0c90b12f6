package notifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
	"github.com/t2bot/snapshot-repo/pool"
	"github.com/t2bot/snapshot-repo/types"
)

type ConsumerOptions struct {
	SourceName      string
	UserAgent       string
	BatchSize       int
	RetryDelay      time.Duration
	PollInterval    time.Duration
	DeliveryTimeout time.Duration
}

type Consumer struct {
	queue   Queue
	secrets SecretResolver
	client  *http.Client
	workers *pool.Queue
	opts    ConsumerOptions
}

const (
	defaultBatchSize       = 10
	defaultPollInterval    = 5 * time.Second
	defaultRetryDelay      = 10 * time.Minute
	defaultDeliveryTimeout = 30 * time.Second
)

// withDefaults replaces unusable values. A zero batch would never drain and a zero poll
// interval cannot be ticked.
func (o ConsumerOptions) withDefaults() ConsumerOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = defaultBatchSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.DeliveryTimeout <= 0 {
		o.DeliveryTimeout = defaultDeliveryTimeout
	}
	return o
}

func NewConsumer(queue Queue, secrets SecretResolver, workers *pool.Queue, opts ConsumerOptions) *Consumer {
	opts = opts.withDefaults()
	return &Consumer{
		queue:   queue,
		secrets: secrets,
		client:  &http.Client{Timeout: opts.DeliveryTimeout},
		workers: workers,
		opts:    opts,
	}
}

// Run polls the queue until ctx is cancelled. A value on wakeups triggers an immediate poll.
func (c *Consumer) Run(ctx rcontext.RequestContext, wakeups <-chan string) {
	ctx.Log.Info("Starting notification consumer")
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()
	for {
		for {
			n, err := c.ProcessBatch(ctx)
			if err != nil {
				ctx.Log.Error("Error receiving notifications: ", err)
				sentry.CaptureException(err)
				break
			}
			if n < c.opts.BatchSize || ctx.Err() != nil {
				break
			}
		}

		select {
		case <-ctx.Done():
			ctx.Log.Info("Stopping notification consumer")
			return
		case <-ticker.C:
		case _, ok := <-wakeups:
			if !ok {
				wakeups = nil
			}
		}
	}
}

// ProcessBatch leases one batch and delivers each message concurrently, waiting for all of them.
// It returns how many messages were leased.
func (c *Consumer) ProcessBatch(ctx rcontext.RequestContext) (int, error) {
	messages, err := c.queue.Receive(ctx, c.opts.BatchSize)
	if err != nil {
		return 0, err
	}

	wg := &sync.WaitGroup{}
	for _, m := range messages {
		msg := m
		wg.Add(1)
		err = c.workers.Schedule(func() {
			defer wg.Done()
			c.handle(ctx, msg)
		})
		if err != nil {
			wg.Done()
			ctx.Log.Warn("Unable to schedule delivery, will retry: ", err)
			c.retry(ctx, msg, "schedule")
		}
	}
	wg.Wait()
	return len(messages), nil
}

func (c *Consumer) handle(ctx rcontext.RequestContext, msg *Message) {
	mctx := ctx.LogWithFields(logrus.Fields{
		"notificationId": msg.Id,
		"subscriberType": msg.Job.Type,
		"attempt":        msg.Attempts,
	})

	if err := c.Deliver(mctx, msg.Job); err != nil {
		mctx.Log.Warn("Notification not delivered, scheduling retry: ", err)
		reason := "unknown"
		var derr *DeliveryError
		if errors.As(err, &derr) {
			reason = derr.reason()
		}
		c.retry(mctx, msg, reason)
		return
	}

	if err := c.queue.Ack(mctx, msg.Id); err != nil {
		// The lease will run out and the subscriber sees a duplicate. Acceptable.
		mctx.Log.Error("Error acknowledging delivered notification: ", err)
		sentry.CaptureException(err)
		return
	}
	metrics.NotificationsDelivered.With(prometheus.Labels{"type": string(msg.Job.Type)}).Inc()
	mctx.Log.Info("Notification delivered")
}

func (c *Consumer) retry(ctx rcontext.RequestContext, msg *Message, reason string) {
	metrics.NotificationsRetried.With(prometheus.Labels{"type": string(msg.Job.Type), "reason": reason}).Inc()
	if err := c.queue.Retry(ctx, msg.Id, c.opts.RetryDelay); err != nil {
		// Still leased; it comes back when the lease expires.
		ctx.Log.Error("Error scheduling notification retry: ", err)
		sentry.CaptureException(err)
	}
}

// Deliver renders and POSTs one job. Any non-2xx answer is a *DeliveryError.
func (c *Consumer) Deliver(ctx rcontext.RequestContext, job *types.NotificationJob) error {
	payload, err := Render(job)
	if err != nil {
		return err
	}

	reqCtx := ctx.Context
	if c.opts.DeliveryTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, c.opts.DeliveryTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, job.Url, bytes.NewReader(payload.Body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", payload.ContentType)
	req.Header.Set("X-Source", c.opts.SourceName)
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if secret := c.secrets.Resolve(job.AuthSecretRef); secret != "" {
		req.Header.Set("Authorization", secret)
	} else if job.AuthSecretRef != "" {
		ctx.Log.Warnf("Secret %s is not set - delivering without Authorization", job.AuthSecretRef)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return &DeliveryError{Url: job.Url, Err: err}
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 64*1024))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &DeliveryError{Url: job.Url, StatusCode: res.StatusCode}
	}
	return nil
}
