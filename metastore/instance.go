package metastore

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/database"
	"github.com/t2bot/snapshot-repo/redislib"
)

// New builds the store named by the metadata backend setting.
func New(conf *config.MainRepoConfig) (Store, error) {
	namespace := conf.Snapshots.KeyNamespace
	switch conf.Metadata.Backend {
	case "redis":
		client := redislib.Client()
		if client == nil {
			return nil, fmt.Errorf("metadata backend is redis but redis is not enabled")
		}
		logrus.Info("Using redis metadata store")
		return NewRedisStore(client, namespace), nil
	case "postgres":
		logrus.Info("Using postgres metadata store")
		return NewPostgresStore(database.GetInstance(), namespace), nil
	case "memory":
		logrus.Warn("Using in-memory metadata store - snapshots will be lost on restart")
		return NewMemoryStore(namespace), nil
	default:
		return nil, fmt.Errorf("%w: metadata %q", common.ErrUnknownBackend, conf.Metadata.Backend)
	}
}
