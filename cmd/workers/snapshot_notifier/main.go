package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/common/logging"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/common/runtime"
	"github.com/t2bot/snapshot-repo/common/version"
	"github.com/t2bot/snapshot-repo/metrics"
	"github.com/t2bot/snapshot-repo/notifier"
	"github.com/t2bot/snapshot-repo/redislib"
)

func main() {
	configPath := flag.String("config", "snapshot-repo.yaml", "The path to the configuration")
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

	err := logging.Setup(logging.Options{
		Directory: config.Get().General.LogDirectory,
		Colors:    config.Get().General.LogColors,
		Json:      config.Get().General.JsonLogs,
		Level:     config.Get().General.LogLevel,
	})
	if err != nil {
		panic(err)
	}

	version.Print(true)
	if config.Get().Notifications.Queue.Backend != "redis" {
		logrus.Fatal("The standalone notifier needs a shared queue - set notifications.queue.backend to redis")
	}

	logrus.Info("Preparing notification queue...")
	queue := runtime.LoadQueue()
	consumer, workers := runtime.BuildConsumer(queue)
	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(stop)
		<-stop
		logrus.Warn("Stop signal received")
		cancel()
	}()

	rctx := rcontext.Wrap(ctx, logrus.WithFields(logrus.Fields{"worker": "notifier"}))
	consumer.Run(rctx, notifier.SubscribeToWakeups(config.Get().Notifications.Queue.Name))

	logrus.Info("Waiting for deliveries to finish...")
	workers.Release(30 * time.Second)
	metrics.Stop()
	redislib.Stop()

	logrus.Info("Goodbye!")
}
