package metastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/config"
)

func TestNewWithDefaultConfig(t *testing.T) {
	conf := config.NewDefaultMainConfig()
	config.SetForTesting(conf)

	store, err := New(&conf)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewRejectsUnavailableBackends(t *testing.T) {
	conf := config.NewDefaultMainConfig()
	config.SetForTesting(conf)

	conf.Metadata.Backend = "redis"
	_, err := New(&conf)
	assert.ErrorContains(t, err, "redis is not enabled")

	conf.Metadata.Backend = "sqlite"
	_, err = New(&conf)
	assert.ErrorIs(t, err, common.ErrUnknownBackend)
}
