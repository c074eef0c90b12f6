package runtime

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/common/version"
	"github.com/t2bot/snapshot-repo/datastores"
	"github.com/t2bot/snapshot-repo/metastore"
	"github.com/t2bot/snapshot-repo/notifier"
	"github.com/t2bot/snapshot-repo/pipelines/_steps/ingest"
	"github.com/t2bot/snapshot-repo/pipelines/pipeline_ingest"
	"github.com/t2bot/snapshot-repo/pool"
	"github.com/t2bot/snapshot-repo/snapshots"
	"github.com/t2bot/snapshot-repo/types"
)

// Components are the long-lived collaborators shared by the web server and the notifier.
type Components struct {
	Meta     metastore.Store
	Blobs    *datastores.Datastore
	Queue    notifier.Queue
	Resolver *snapshots.Resolver
	Ingest   *pipeline_ingest.Pipeline
}

func RunStartupSequence() *Components {
	version.Print(true)
	pool.Init()

	c := &Components{
		Meta:  LoadMetadata(),
		Blobs: LoadDatastore(),
	}
	SeedWebhooks(c.Meta)
	if config.Get().Notifications.Enabled {
		c.Queue = LoadQueue()
	}

	conf := config.Get()
	c.Resolver = snapshots.NewResolver(c.Meta, c.Blobs, conf.Snapshots.PublicBaseUrl, conf.Snapshots.Extension)

	var sender ingest.Sender
	if c.Queue != nil {
		sender = c.Queue
	}
	c.Ingest = pipeline_ingest.New(c.Meta, c.Blobs, sender, c.Resolver.FileUrl, ingest.LockForIngest, pipeline_ingest.Options{
		HistoryTtl:      time.Duration(conf.Snapshots.HistoryTtlDays) * 24 * time.Hour,
		VerifyHash:      conf.Uploads.VerifyHash,
		EnqueueAttempts: conf.Notifications.EnqueueAttempts,
		EnqueueBackOff:  500 * time.Millisecond,
		LockName:        conf.Snapshots.KeyNamespace,
	})

	return c
}

func LoadMetadata() metastore.Store {
	logrus.Info("Preparing metadata store...")
	store, err := metastore.New(config.Get())
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
	return store
}

func LoadDatastore() *datastores.Datastore {
	conf := config.Get()
	logrus.Info("Initializing datastore...")
	ds, err := datastores.New(conf.Blobs, conf.Snapshots.Extension)
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
	logrus.Infof("\t%s: %s", ds.Type(), ds.GetUri())

	if ds.Type() == datastores.TypeS3 {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		ds.EnsureBucketExists(ctx)
	}
	return ds
}

func LoadQueue() notifier.Queue {
	logrus.Info("Preparing notification queue...")
	q, err := notifier.NewQueue(config.Get().Notifications.Queue)
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
	return q
}

// SeedWebhooks writes the configured subscriptions into the store. Existing ids are replaced.
func SeedWebhooks(store metastore.Store) {
	seeds := config.Get().Notifications.Webhooks
	if len(seeds) == 0 {
		return
	}

	ctx := rcontext.Initial().LogWithFields(logrus.Fields{"stage": "seed_webhooks"})
	for _, w := range seeds {
		sub := &types.WebhookSubscription{
			Id:            w.Id,
			Type:          types.SubscriberType(w.Type),
			Url:           w.Url,
			AuthSecretRef: w.AuthSecretRef,
		}
		if sub.Id == "" {
			sub.Id = w.Url
		}
		if err := store.PutWebhook(ctx, sub); err != nil {
			sentry.CaptureException(err)
			ctx.Log.Error("Error seeding webhook ", sub.Id, ": ", err)
			continue
		}
		ctx.Log.Infof("Webhook %s (%s) registered", sub.Id, sub.Type)
	}
}

// BuildConsumer prepares a consumer with its own delivery pool.
func BuildConsumer(queue notifier.Queue) (*notifier.Consumer, *pool.Queue) {
	conf := config.Get().Notifications
	workers, err := pool.NewQueue(conf.Consumer.NumWorkers, "notifications")
	if err != nil {
		sentry.CaptureException(err)
		logrus.Fatal(err)
	}
	consumer := notifier.NewConsumer(queue, notifier.NewConfigSecrets(conf.Secrets), workers, notifier.ConsumerOptions{
		SourceName:      conf.SourceName,
		UserAgent:       version.UserAgent(conf.SourceName),
		BatchSize:       conf.Consumer.BatchSize,
		RetryDelay:      time.Duration(conf.Consumer.RetryDelaySeconds) * time.Second,
		PollInterval:    time.Duration(conf.Consumer.PollIntervalSeconds) * time.Second,
		DeliveryTimeout: time.Duration(conf.DeliveryTimeoutSeconds) * time.Second,
	})
	return consumer, workers
}
