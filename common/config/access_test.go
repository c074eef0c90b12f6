package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnvironment(t *testing.T) {
	t.Setenv("SNAPSHOT_API_TOKEN", "from-env")
	t.Setenv("SNAPSHOT_PUBLIC_BASE_URL", "https://cdn.example.org")
	t.Setenv("SNAPSHOT_REDIS_ADDR", "localhost:6379")
	t.Setenv("SNAPSHOT_PORT", "9999")

	c := NewDefaultMainConfig()
	require.NoError(t, ApplyEnvironment(&c))

	assert.Equal(t, "from-env", c.Uploads.ApiToken)
	assert.Equal(t, "https://cdn.example.org", c.Snapshots.PublicBaseUrl)
	assert.Equal(t, 9999, c.General.Port)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, []RedisShardConfig{{Name: "env", Address: "localhost:6379"}}, c.Redis.Shards)
}

func TestApplyEnvironmentKeepsDefaults(t *testing.T) {
	c := NewDefaultMainConfig()
	require.NoError(t, ApplyEnvironment(&c))
	assert.Equal(t, NewDefaultMainConfig().General, c.General)
	assert.False(t, c.Redis.Enabled)
	assert.Empty(t, c.Redis.Shards)
}

func TestApplyEnvironmentRejectsBadValues(t *testing.T) {
	t.Setenv("SNAPSHOT_PORT", "not-a-port")
	c := NewDefaultMainConfig()
	assert.Error(t, ApplyEnvironment(&c))
}
