package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/snapshot-repo/common/rcontext"
)

func TestRegistryRunsDetachedTasks(t *testing.T) {
	q, err := NewQueue(2, "test")
	require.NoError(t, err)
	r := NewRegistry(q)

	reqCtx, cancel := context.WithCancel(context.Background())
	ctx := rcontext.Wrap(reqCtx, rcontext.Initial().Log)

	started := make(chan struct{})
	var sawCancel atomic.Bool
	r.Spawn(ctx, "slow", func(ctx rcontext.RequestContext) error {
		<-started
		sawCancel.Store(ctx.Err() != nil)
		return nil
	})

	// The request finishing must not cancel the task
	cancel()
	close(started)
	r.Wait()
	assert.False(t, sawCancel.Load())
	r.Close()
}

func TestRegistrySwallowsErrors(t *testing.T) {
	q, err := NewQueue(2, "test")
	require.NoError(t, err)
	r := NewRegistry(q)

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		r.Spawn(rcontext.Initial(), "failing", func(ctx rcontext.RequestContext) error {
			ran.Add(1)
			return errors.New("boom")
		})
	}
	r.Close()
	assert.EqualValues(t, 10, ran.Load())
}

func TestRegistryRejectsAfterClose(t *testing.T) {
	q, err := NewQueue(1, "test")
	require.NoError(t, err)
	r := NewRegistry(q)
	r.Close()

	ran := false
	r.Spawn(rcontext.Initial(), "late", func(ctx rcontext.RequestContext) error {
		ran = true
		return nil
	})
	r.Wait()
	assert.False(t, ran)
}

func TestTaskErrorUnwraps(t *testing.T) {
	inner := errors.New("inner")
	err := TaskError{Task: "x", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "x: inner", err.Error())
}
