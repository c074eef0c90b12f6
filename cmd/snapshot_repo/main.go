package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/api"
	"github.com/t2bot/snapshot-repo/api/custom"
	"github.com/t2bot/snapshot-repo/api/r0"
	"github.com/t2bot/snapshot-repo/common/assets"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/common/logging"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/common/runtime"
	"github.com/t2bot/snapshot-repo/common/version"
	"github.com/t2bot/snapshot-repo/datastores"
	"github.com/t2bot/snapshot-repo/database"
	"github.com/t2bot/snapshot-repo/internal_cache"
	"github.com/t2bot/snapshot-repo/metrics"
	"github.com/t2bot/snapshot-repo/notifier"
	"github.com/t2bot/snapshot-repo/pool"
	"github.com/t2bot/snapshot-repo/redislib"
	"github.com/t2bot/snapshot-repo/types"
)

func main() {
	configPath := flag.String("config", "snapshot-repo.yaml", "The path to the configuration")
	migrationsPath := flag.String("migrations", config.DefaultMigrationsPath, "The absolute path for the migrations folder")
	templatesPath := flag.String("templates", config.DefaultTemplatesPath, "The absolute path for the templates folder")
	versionFlag := flag.Bool("version", false, "Prints the version and exits")
	flag.Parse()

	if *versionFlag {
		version.Print(false)
		return // exit 0
	}

	// Override config path with config for Docker users
	configEnv := os.Getenv("REPO_CONFIG")
	if configEnv != "" {
		configPath = &configEnv
	}

	config.Path = *configPath
	if config.Get().Sentry.Enabled {
		logrus.Info("Setting up Sentry for debugging...")
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         config.Get().Sentry.Dsn,
			Environment: config.Get().Sentry.Environment,
			Debug:       config.Get().Sentry.Debug,
			Release:     version.Release(),
		})
		if err != nil {
			panic(err)
		}
	}
	defer sentry.Flush(2 * time.Second)
	defer sentry.Recover()

	defer assets.Cleanup()
	assets.SetupMigrations(*migrationsPath)
	assets.SetupTemplates(*templatesPath)

	err := logging.Setup(logging.Options{
		Directory: config.Get().General.LogDirectory,
		Colors:    config.Get().General.LogColors,
		Json:      config.Get().General.JsonLogs,
		Level:     config.Get().General.LogLevel,
	})
	if err != nil {
		panic(err)
	}

	logrus.Info("Starting up...")
	components := runtime.RunStartupSequence()

	stopConsumer := func() {}
	if components.Queue != nil && config.Get().Notifications.Consumer.Enabled {
		logrus.Info("Starting in-process notification consumer...")
		stopConsumer = startConsumer(components.Queue)
	}

	logrus.Info("Starting config watcher...")
	watcher := config.Watch()
	defer func(watcher *fsnotify.Watcher) {
		_ = watcher.Close()
	}(watcher)
	setupReloads()

	logrus.Info("Starting snapshot repository...")
	metrics.Init()
	web := api.Init(&api.Services{
		Handlers: &r0.Handlers{
			Resolver:        components.Resolver,
			Meta:            components.Meta,
			Ingest:          components.Ingest,
			Blobs:           components.Blobs,
			Extension:       config.Get().Snapshots.Extension,
			CacheTtlSeconds: config.Get().Snapshots.CacheTtlSeconds,
			MaxUploadBytes:  config.Get().Uploads.MaxSizeBytes,
		},
		Cache:      internal_cache.Get(),
		Background: pool.Background,
		Probes:     healthProbes(components),
		ServeFiles: components.Blobs.Type() == datastores.TypeFile,
	})

	// Set up a function to stop everything
	stopAllButWeb := func() {
		logrus.Info("Stopping reload watchers...")
		stopReloads()

		logrus.Info("Stopping metrics...")
		metrics.Stop()

		logrus.Info("Stopping notification consumer...")
		stopConsumer()

		logrus.Info("Waiting for background work...")
		pool.Drain()

		logrus.Info("Closing connections...")
		internal_cache.Get().Stop()
		redislib.Stop()
		database.Close()
	}

	// Set up a listener for SIGINT
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	selfStop := false
	go func() {
		defer signal.Stop(stop)
		<-stop
		selfStop = true

		logrus.Warn("Stop signal received")
		logrus.Info("Stopping web server...")
		api.Stop()
	}()

	// Wait for the web server to exit nicely
	web.Wait()

	// Stop everything else
	stopAllButWeb()
	if !selfStop {
		logrus.Warn("Web server stopped unexpectedly")
	}

	// For debugging
	logrus.Info("Goodbye!")
}

func startConsumer(queue notifier.Queue) func() {
	consumer, workers := runtime.BuildConsumer(queue)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	rctx := rcontext.Wrap(ctx, logrus.WithFields(logrus.Fields{"worker": "notifier"}))
	go func() {
		defer close(done)
		consumer.Run(rctx, notifier.SubscribeToWakeups(config.Get().Notifications.Queue.Name))
	}()
	return func() {
		cancel()
		<-done
		workers.Release(10 * time.Second)
	}
}

func healthProbes(components *runtime.Components) map[string]custom.Probe {
	return map[string]custom.Probe{
		"metadata": func(ctx rcontext.RequestContext) error {
			_, err := components.Meta.Get(ctx, types.LatestKey)
			return err
		},
		"redis": func(ctx rcontext.RequestContext) error {
			return redislib.Ping(ctx)
		},
	}
}
