package ingest

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
	"github.com/t2bot/snapshot-repo/types"
)

type Sender interface {
	Send(ctx rcontext.RequestContext, job *types.NotificationJob) error
}

type FanOutResult struct {
	Enqueued int
	Failed   int
}

// FanOut sends one job per subscription concurrently and waits for every send to settle. Each send
// is retried up to attempts times; a send that still fails is reported and counted, never returned.
func FanOut(ctx rcontext.RequestContext, queue Sender, subs []*types.WebhookSubscription, change types.NotificationJob, attempts int, initialInterval time.Duration) FanOutResult {
	if attempts < 1 {
		attempts = 1
	}

	// The caller going away must not drop notifications.
	ctx = ctx.Detached()

	result := FanOutResult{}
	lock := &sync.Mutex{}
	wg := &sync.WaitGroup{}
	for _, s := range subs {
		sub := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			sctx := ctx.LogWithFields(logrus.Fields{"subscriptionId": sub.Id, "subscriberType": sub.Type})
			job := change
			job.Id = ""
			job.Type = sub.Type
			job.Url = sub.Url
			job.AuthSecretRef = sub.AuthSecretRef

			b := backoff.NewExponentialBackOff()
			b.InitialInterval = initialInterval
			_, err := backoff.Retry(sctx.Context, func() (bool, error) {
				return true, queue.Send(sctx, &job)
			}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(attempts)), backoff.WithNotify(func(err error, next time.Duration) {
				sctx.Log.Warnf("Error enqueuing notification, retrying in %s: %v", next, err)
			}))

			lock.Lock()
			defer lock.Unlock()
			if err != nil {
				sctx.Log.Error("Giving up on enqueuing notification: ", err)
				sentry.CaptureException(err)
				metrics.NotificationsEnqueueFailed.With(prometheus.Labels{"type": string(sub.Type)}).Inc()
				result.Failed++
				return
			}
			metrics.NotificationsEnqueued.With(prometheus.Labels{"type": string(sub.Type)}).Inc()
			result.Enqueued++
		}()
	}
	wg.Wait()
	return result
}
