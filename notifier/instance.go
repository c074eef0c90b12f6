package notifier

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/redislib"
)

// NewQueue builds the queue named by the notifications queue setting.
func NewQueue(conf config.QueueConfig) (Queue, error) {
	visibility := time.Duration(conf.VisibilityTimeoutSeconds) * time.Second
	switch conf.Backend {
	case "redis":
		client := redislib.Client()
		if client == nil {
			return nil, fmt.Errorf("notification queue backend is redis but redis is not enabled")
		}
		logrus.Infof("Using redis notification queue %s", conf.Name)
		return NewRedisQueue(client, conf.Name, visibility, conf.MaxDeliveries), nil
	case "memory":
		logrus.Warn("Using in-memory notification queue - pending notifications will be lost on restart")
		return NewMemoryQueue(visibility, conf.MaxDeliveries), nil
	default:
		return nil, fmt.Errorf("%w: queue %q", common.ErrUnknownBackend, conf.Backend)
	}
}
