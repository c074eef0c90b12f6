package notifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/config"
)

func TestNewQueueWithDefaultConfig(t *testing.T) {
	conf := config.NewDefaultMainConfig()
	config.SetForTesting(conf)

	q, err := NewQueue(conf.Notifications.Queue)
	require.NoError(t, err)
	assert.IsType(t, &MemoryQueue{}, q)

	conf.Notifications.Queue.Backend = "redis"
	_, err = NewQueue(conf.Notifications.Queue)
	assert.ErrorContains(t, err, "redis is not enabled")

	conf.Notifications.Queue.Backend = "sqs"
	_, err = NewQueue(conf.Notifications.Queue)
	assert.ErrorIs(t, err, common.ErrUnknownBackend)
}
