package pool

import (
	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
)

var BackgroundQueue *Queue
var Background *Registry

func Init() {
	var err error
	if BackgroundQueue, err = NewQueue(config.Get().Background.NumWorkers, "background"); err != nil {
		sentry.CaptureException(err)
		logrus.Error("Error setting up background queue")
		logrus.Fatal(err)
	}
	Background = NewRegistry(BackgroundQueue)
}

func AdjustSize() {
	BackgroundQueue.Tune(config.Get().Background.NumWorkers)
}

func Drain() {
	if Background != nil {
		Background.Close()
	}
}
