package notifier

import (
	"time"

	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/types"
)

// Message is a leased job. It stays invisible to other receivers until it is acked, retried or
// its lease runs out.
type Message struct {
	Id       string
	Job      *types.NotificationJob
	Attempts int
}

// Queue is an at-least-once job queue.
type Queue interface {
	Send(ctx rcontext.RequestContext, job *types.NotificationJob) error
	// Receive leases up to max visible messages. An empty slice means nothing is ready.
	Receive(ctx rcontext.RequestContext, max int) ([]*Message, error)
	Ack(ctx rcontext.RequestContext, id string) error
	// Retry makes a leased message visible again after delay.
	Retry(ctx rcontext.RequestContext, id string, delay time.Duration) error
}
