package internal_cache

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/redislib"
)

var instance ResponseCache
var lock = &sync.Once{}

func Get() ResponseCache {
	if instance != nil {
		return instance
	}

	lock.Do(func() {
		backend := config.Get().ResponseCache.Backend
		if backend == "redis" {
			if client := redislib.Client(); client != nil {
				logrus.Info("Setting up Redis response cache")
				instance = NewRedisCache(client)
				return
			}
			logrus.Warn("Response cache is set to redis but redis is not enabled - falling back to memory")
			backend = "memory"
		}
		if backend == "memory" {
			logrus.Info("Setting up in-memory response cache")
			instance = NewMemoryCache()
		} else {
			logrus.Warn("Response cache is disabled - setting up a dummy instance")
			instance = NewNoopCache()
		}
	})

	return instance
}
