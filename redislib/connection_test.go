package redislib

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/snapshot-repo/common/config"
)

func useRedis(t *testing.T) *miniredis.Miniredis {
	server := miniredis.RunT(t)
	conf := config.NewDefaultMainConfig()
	conf.Redis.Enabled = true
	conf.Redis.Shards = []config.RedisShardConfig{{Name: "test", Address: server.Addr()}}
	config.SetForTesting(conf)
	Stop()
	t.Cleanup(Stop)
	return server
}

func TestTaggedKeys(t *testing.T) {
	assert.Equal(t, "{snap}:meta:ns:2024-01-01", SnapshotKey("meta", "ns:2024-01-01"))
	assert.Equal(t, "{queue:notifications}:pending", TaggedKey("queue:notifications", "pending"))
}

func TestDisabledRedis(t *testing.T) {
	config.SetForTesting(config.NewDefaultMainConfig())
	Stop()
	t.Cleanup(Stop)

	assert.Nil(t, Client())
	assert.Nil(t, IngestMutex("", time.Minute, time.Second))
	assert.NoError(t, Ping(context.Background()))
}

func TestIngestMutexSharesSnapshotTag(t *testing.T) {
	useRedis(t)
	ctx := context.Background()

	first := IngestMutex("ns", time.Minute, 0)
	require.NotNil(t, first)
	assert.Equal(t, "{snap}:lock:ingest:ns", first.Name())
	require.NoError(t, first.LockContext(ctx))

	second := IngestMutex("ns", time.Minute, 0)
	assert.Error(t, second.LockContext(ctx))

	other := IngestMutex("other", time.Minute, 0)
	require.NoError(t, other.LockContext(ctx))

	ok, err := first.UnlockContext(ctx)
	assert.True(t, ok)
	assert.NoError(t, err)
	require.NoError(t, second.LockContext(ctx))
}

func TestPing(t *testing.T) {
	server := useRedis(t)
	require.NotNil(t, Client())
	assert.NoError(t, Ping(context.Background()))

	server.Close()
	assert.Error(t, Ping(context.Background()))
}
