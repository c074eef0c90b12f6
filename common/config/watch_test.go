package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestartRequired(t *testing.T) {
	prev := NewDefaultMainConfig()
	next := NewDefaultMainConfig()
	assert.Empty(t, restartRequired(&prev, &next))

	next.Blobs.Type = "s3"
	next.Notifications.Queue.Backend = "redis"
	next.General.LogLevel = "debug"
	assert.Equal(t, []string{"blobs", "notifications", "logging"}, restartRequired(&prev, &next))
}

func TestReloadTriggers(t *testing.T) {
	prev := NewDefaultMainConfig()
	next := NewDefaultMainConfig()
	next.RateLimit.BurstCount = 99

	fired := make([]string, 0)
	for _, trigger := range reloadTriggers {
		if trigger.changed(&prev, &next) {
			fired = append(fired, trigger.name)
		}
	}
	assert.Equal(t, []string{"webserver"}, fired)
}
