package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common/config"
)

var srv *http.Server
var srvLock = &sync.Mutex{}

func newHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorLog:      logrus.StandardLogger(),
			ErrorHandling: promhttp.ContinueOnError,
		}),
	))
	return mux
}

// Init starts the metrics listener when enabled. The listener is separate from the public API.
func Init() {
	conf := config.Get().Metrics
	if !conf.Enabled {
		logrus.Info("Metrics disabled")
		return
	}

	srvLock.Lock()
	defer srvLock.Unlock()
	if srv != nil {
		return
	}

	address := net.JoinHostPort(conf.BindAddress, strconv.Itoa(conf.Port))
	srv = &http.Server{
		Addr:              address,
		Handler:           newHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func(s *http.Server) {
		logrus.WithField("address", address).Info("Metrics listening at http://" + address + "/metrics")
		if err := s.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}(srv)
}

func Reload() {
	Stop()
	Init()
}

func Stop() {
	srvLock.Lock()
	defer srvLock.Unlock()
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Warn("Error stopping metrics listener: ", err)
	}
	srv = nil
}
