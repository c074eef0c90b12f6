package config

import (
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/globals"
)

func Watch() *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.Fatal(err)
	}

	err = watcher.Add(Path)
	if err != nil {
		logrus.Fatal(err)
	}

	go func() {
		debounced := debounce.New(1 * time.Second)
		for {
			select {
			case _, ok := <-watcher.Events:
				if !ok {
					return
				}
				debounced(onFileChanged)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logrus.Error("error in config watcher:", err)
			}
		}
	}()

	return watcher
}

type reloadTrigger struct {
	name    string
	changed func(prev *MainRepoConfig, next *MainRepoConfig) bool
	ch      chan bool
}

var reloadTriggers = []reloadTrigger{
	{"webserver", func(prev *MainRepoConfig, next *MainRepoConfig) bool {
		return prev.General.BindAddress != next.General.BindAddress ||
			prev.General.Port != next.General.Port ||
			prev.General.TrustAnyForward != next.General.TrustAnyForward ||
			prev.RateLimit != next.RateLimit
	}, globals.WebReloadChan},
	{"metrics", func(prev *MainRepoConfig, next *MainRepoConfig) bool {
		return prev.Metrics != next.Metrics
	}, globals.MetricsReloadChan},
	{"background pool", func(prev *MainRepoConfig, next *MainRepoConfig) bool {
		return prev.Background.NumWorkers != next.Background.NumWorkers
	}, globals.PoolReloadChan},
}

// restartRequired reports the sections that only take effect on the next start.
func restartRequired(prev *MainRepoConfig, next *MainRepoConfig) []string {
	sections := make([]string, 0)
	if prev.Metadata.Backend != next.Metadata.Backend || prev.Database.Postgres != next.Database.Postgres {
		sections = append(sections, "metadata")
	}
	if prev.Blobs.Type != next.Blobs.Type {
		sections = append(sections, "blobs")
	}
	if prev.ResponseCache.Backend != next.ResponseCache.Backend {
		sections = append(sections, "responseCache")
	}
	if prev.Notifications.Queue != next.Notifications.Queue || prev.Notifications.Consumer != next.Notifications.Consumer {
		sections = append(sections, "notifications")
	}
	if prev.General.LogDirectory != next.General.LogDirectory || prev.General.LogLevel != next.General.LogLevel {
		sections = append(sections, "logging")
	}
	return sections
}

func onFileChanged() {
	logrus.Info("Config file change detected - reloading")
	configNow := Get()
	configNew, err := reloadConfig()
	if err != nil {
		logrus.Error("Error reloading configuration - ignoring: ", err)
		return
	}

	logrus.Info("Applying reloaded config live")
	instance = configNew

	for _, trigger := range reloadTriggers {
		if trigger.changed(configNow, configNew) {
			logrus.Warnf("%s configuration changed - remounting", trigger.name)
			trigger.ch <- true
		}
	}
	for _, section := range restartRequired(configNow, configNew) {
		logrus.Warnf("%s configuration changed - restart the snapshot repo to apply changes", section)
	}
}
