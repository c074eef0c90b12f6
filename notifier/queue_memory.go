package notifier

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
)

type memoryEntry struct {
	job       types.NotificationJob
	visibleAt time.Time
	attempts  int
	seq       int64
}

// MemoryQueue keeps messages in process. It has the same lease semantics as the redis queue but
// loses everything on restart.
type MemoryQueue struct {
	visibility    time.Duration
	maxDeliveries int
	entries       map[string]*memoryEntry
	dead          []types.NotificationJob
	seq           int64
	lock          sync.Mutex
	now           func() time.Time
}

func NewMemoryQueue(visibility time.Duration, maxDeliveries int) *MemoryQueue {
	return &MemoryQueue{
		visibility:    visibility,
		maxDeliveries: maxDeliveries,
		entries:       make(map[string]*memoryEntry),
		dead:          make([]types.NotificationJob, 0),
		now:           time.Now,
	}
}

// SetClock replaces the queue's time source.
func (q *MemoryQueue) SetClock(now func() time.Time) {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.now = now
}

func (q *MemoryQueue) Send(ctx rcontext.RequestContext, job *types.NotificationJob) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if job.Id == "" {
		job.Id = uuid.NewString()
	}
	q.seq++
	q.entries[job.Id] = &memoryEntry{job: *job, visibleAt: q.now(), seq: q.seq}
	return nil
}

func (q *MemoryQueue) Receive(ctx rcontext.RequestContext, max int) ([]*Message, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	now := q.now()
	ready := make([]*memoryEntry, 0)
	for _, e := range q.entries {
		if !e.visibleAt.After(now) {
			ready = append(ready, e)
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].visibleAt.Equal(ready[j].visibleAt) {
			return ready[i].seq < ready[j].seq
		}
		return ready[i].visibleAt.Before(ready[j].visibleAt)
	})

	messages := make([]*Message, 0)
	for _, e := range ready {
		if len(messages) >= max {
			break
		}
		e.attempts++
		if q.maxDeliveries > 0 && e.attempts > q.maxDeliveries {
			delete(q.entries, e.job.Id)
			q.dead = append(q.dead, e.job)
			ctx.Log.Warnf("Moved notification %s to the dead letter list", e.job.Id)
			continue
		}
		e.visibleAt = now.Add(q.visibility)
		job := e.job
		messages = append(messages, &Message{Id: job.Id, Job: &job, Attempts: e.attempts})
	}
	return messages, nil
}

func (q *MemoryQueue) Ack(ctx rcontext.RequestContext, id string) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	delete(q.entries, id)
	return nil
}

func (q *MemoryQueue) Retry(ctx rcontext.RequestContext, id string, delay time.Duration) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if e, ok := q.entries[id]; ok {
		e.visibleAt = q.now().Add(delay)
	}
	return nil
}

// Len counts messages not yet acked or dead lettered, leased or not.
func (q *MemoryQueue) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.entries)
}

func (q *MemoryQueue) Dead() []types.NotificationJob {
	q.lock.Lock()
	defer q.lock.Unlock()
	return append([]types.NotificationJob{}, q.dead...)
}
