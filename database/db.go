package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/DavidHuie/gomigrate"
	_ "github.com/lib/pq" // postgres driver
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
)

// Database holds the postgres connection and the prepared statements for each table.
type Database struct {
	conn     *sql.DB
	Keys     *keysTableStatements
	Webhooks *webhooksTableStatements
}

var instance *Database
var singleton = &sync.Once{}

func GetInstance() *Database {
	if instance == nil {
		singleton.Do(func() {
			conf := config.Get().Database
			d, err := Open(conf.Postgres, conf.Pool, config.Runtime.MigrationsPath)
			if err != nil {
				logrus.Fatal("Failed to set up database: ", err)
			}
			instance = d
		})
	}
	return instance
}

// Open connects, runs migrations and prepares every table. Most callers want GetInstance.
func Open(connectionString string, pool *config.DbPoolConfig, migrationsPath string) (*Database, error) {
	conn, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}
	if pool != nil {
		conn.SetMaxOpenConns(pool.MaxConnections)
		conn.SetMaxIdleConns(pool.MaxIdle)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err = conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error reaching db: %w", err)
	}

	migrator, err := gomigrate.NewMigratorWithLogger(conn, gomigrate.Postgres{}, migrationsPath, logrus.StandardLogger())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error setting up migrator: %w", err)
	}
	if err = migrator.Migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	d := &Database{conn: conn}
	if d.Keys, err = prepareKeysTables(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create snapshot keys table accessor: %w", err)
	}
	if d.Webhooks, err = prepareWebhooksTables(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create webhooks table accessor: %w", err)
	}
	return d, nil
}

func Close() {
	if instance == nil {
		return
	}
	if err := instance.conn.Close(); err != nil {
		logrus.Warn("Error closing database: ", err)
	}
	instance = nil
	singleton = &sync.Once{}
}
