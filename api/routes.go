package api

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/api/_routers"
	"github.com/t2bot/snapshot-repo/api/custom"
	"github.com/t2bot/snapshot-repo/api/r0"
	"github.com/t2bot/snapshot-repo/internal_cache"
)

// Services are the collaborators the routes need.
type Services struct {
	Handlers   *r0.Handlers
	Cache      internal_cache.ResponseCache
	Background _routers.Spawner
	// Probes are checked by /healthz. A failing probe turns the response into a 503.
	Probes map[string]custom.Probe
	// ServeFiles exposes stored blobs under /files/ for the file datastore.
	ServeFiles bool
}

func BuildRoutes(s *Services) http.Handler {
	counter := &_routers.RequestCounter{}
	router := buildPrimaryRouter()
	h := s.Handlers

	cached := func(generator _routers.GeneratorFn, name string) http.Handler {
		return makeCachedRoute(generator, name, counter, s.Cache, s.Background)
	}

	register([]string{"GET", "HEAD"}, "/", router, cached(h.Landing, "landing"))
	register([]string{"GET", "HEAD"}, "/latest", router, makeRoute(h.Latest, "latest", counter))
	register([]string{"GET", "HEAD"}, "/latest.json", router, cached(h.LatestJson, "latest_json"))
	register([]string{"GET", "HEAD"}, "/list.json", router, cached(h.List, "list_json"))
	register([]string{"POST"}, "/new", router, makeRoute(_routers.RequireApiToken(h.Upload), "upload", counter))
	register([]string{"GET", "HEAD"}, "/new", router, makeRoute(r0.UploadRead, "upload_read", counter))
	register([]string{"GET", "HEAD"}, "/healthz", router, makeRoute(custom.Healthz(s.Probes), "healthz", counter))
	register([]string{"GET"}, "/version", router, makeRoute(custom.GetVersion, "get_version", counter))
	if s.ServeFiles && h.Blobs != nil {
		register([]string{"GET", "HEAD"}, "/files/:object", router, makeRoute(h.File, "download_file", counter))
	}

	// Everything else is a date lookup
	router.NotFound = cached(h.ByDate, "snapshot_by_date")

	return router
}

func makeRoute(generator _routers.GeneratorFn, name string, counter *_routers.RequestCounter) http.Handler {
	return _routers.NewInstallMetadataRouter(name, counter,
		_routers.NewInstallHeadersRouter(
			_routers.NewRemoteAddressRouter(
				_routers.NewMetricsRequestRouter(
					_routers.NewRContextRouter(generator, _routers.NewMetricsResponseRouter(nil)),
				),
			),
		))
}

func makeCachedRoute(generator _routers.GeneratorFn, name string, counter *_routers.RequestCounter, cache internal_cache.ResponseCache, spawner _routers.Spawner) http.Handler {
	return _routers.NewInstallMetadataRouter(name, counter,
		_routers.NewInstallHeadersRouter(
			_routers.NewRemoteAddressRouter(
				_routers.NewMetricsRequestRouter(
					_routers.NewResponseCacheRouter(cache, spawner,
						_routers.NewRContextRouter(generator, _routers.NewMetricsResponseRouter(nil)),
						_routers.NewMetricsResponseRouter(nil),
					),
				),
			),
		))
}

func register(methods []string, path string, router interface {
	Handler(method, path string, handler http.Handler)
}, handler http.Handler) {
	for _, method := range methods {
		router.Handler(method, path, handler)
		logrus.Debug("Registering route: ", method, " ", path)
	}
}
