package main

import (
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/api"
	"github.com/t2bot/snapshot-repo/common/globals"
	"github.com/t2bot/snapshot-repo/metrics"
	"github.com/t2bot/snapshot-repo/pool"
)

func setupReloads() {
	reloadWebOnChan(globals.WebReloadChan)
	reloadMetricsOnChan(globals.MetricsReloadChan)
	reloadPoolOnChan(globals.PoolReloadChan)
}

func stopReloads() {
	// send stop signal to reload fns
	logrus.Debug("Stopping WebReloadChan")
	globals.WebReloadChan <- false
	logrus.Debug("Stopping MetricsReloadChan")
	globals.MetricsReloadChan <- false
	logrus.Debug("Stopping PoolReloadChan")
	globals.PoolReloadChan <- false
}

func reloadOnChan(reloadChan chan bool, reloadFn func()) {
	go func() {
		defer close(reloadChan)
		for {
			shouldReload := <-reloadChan
			if shouldReload {
				reloadFn()
			} else {
				return // received stop
			}
		}
	}()
}

func reloadWebOnChan(reloadChan chan bool) {
	reloadOnChan(reloadChan, api.Reload)
}

func reloadMetricsOnChan(reloadChan chan bool) {
	reloadOnChan(reloadChan, metrics.Reload)
}

func reloadPoolOnChan(reloadChan chan bool) {
	reloadOnChan(reloadChan, pool.AdjustSize)
}
