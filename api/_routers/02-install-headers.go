package _routers

import (
	"net/http"
	"strings"
)

var corsAllowHeaders = strings.Join([]string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization"}, ", ")
var corsAllowMethods = strings.Join([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions}, ", ")

type InstallHeadersRouter struct {
	next   http.Handler
	server string
}

func NewInstallHeadersRouter(next http.Handler) *InstallHeadersRouter {
	return &InstallHeadersRouter{next: next, server: "snapshot-repo"}
}

func (i *InstallHeadersRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	headers := w.Header()
	headers.Set("Server", i.server)
	headers.Set("X-Content-Type-Options", "nosniff")

	// Snapshots are embedded by other sites, so everything is readable cross-origin.
	headers.Set("Access-Control-Allow-Origin", "*")
	headers.Set("Access-Control-Allow-Headers", corsAllowHeaders)
	headers.Set("Access-Control-Allow-Methods", corsAllowMethods)
	headers.Set("Access-Control-Expose-Headers", "Location")
	headers.Set("Cross-Origin-Resource-Policy", "cross-origin")

	if i.next != nil {
		i.next.ServeHTTP(w, r)
	}
}
