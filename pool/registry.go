package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/metrics"
)

// TaskError is what a failed background task reports on the registry's error channel.
type TaskError struct {
	Task string
	Err  error
}

func (e TaskError) Error() string {
	return fmt.Sprintf("%s: %v", e.Task, e.Err)
}

func (e TaskError) Unwrap() error {
	return e.Err
}

// Registry runs detached work on a Queue. Tasks outlive the request that spawned them, and their
// failures are collected on an error channel which is logged rather than returned to anyone.
type Registry struct {
	queue  *Queue
	errs   chan TaskError
	wg     sync.WaitGroup
	done   chan struct{}
	closed bool
	lock   sync.Mutex
}

func NewRegistry(queue *Queue) *Registry {
	r := &Registry{
		queue: queue,
		errs:  make(chan TaskError, 64),
		done:  make(chan struct{}),
	}
	go r.drainErrors()
	return r
}

// Spawn runs fn in the background with a context that is not cancelled by the caller.
func (r *Registry) Spawn(ctx rcontext.RequestContext, name string, fn func(ctx rcontext.RequestContext) error) {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		ctx.Log.Warnf("Not running background task %s: registry closed", name)
		return
	}
	r.wg.Add(1)
	r.lock.Unlock()

	detached := ctx.Detached().LogWithFields(logrus.Fields{"task": name})
	task := func() {
		defer r.wg.Done()
		if err := fn(detached); err != nil {
			r.errs <- TaskError{Task: name, Err: err}
		}
	}
	if err := r.queue.Schedule(task); err != nil {
		r.wg.Done()
		r.errs <- TaskError{Task: name, Err: err}
	}
}

func (r *Registry) drainErrors() {
	defer close(r.done)
	for err := range r.errs {
		logrus.WithField("task", err.Task).Warn("Background task failed: ", err.Err)
		metrics.BackgroundTaskErrors.With(prometheus.Labels{"task": err.Task}).Inc()
		sentry.CaptureException(err)
	}
}

// Wait blocks until every spawned task has finished.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) Close() {
	r.lock.Lock()
	if r.closed {
		r.lock.Unlock()
		return
	}
	r.closed = true
	r.lock.Unlock()

	r.wg.Wait()
	close(r.errs)
	<-r.done
	r.queue.Release(5 * time.Second)
}
