package _routers

import (
	"net"
	"net/http"

	"github.com/sebest/xff"
	"github.com/t2bot/snapshot-repo/common/config"
)

type RemoteAddressRouter struct {
	next http.Handler
}

func NewRemoteAddressRouter(next http.Handler) *RemoteAddressRouter {
	return &RemoteAddressRouter{next: next}
}

func (h *RemoteAddressRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var raddr string
	if config.Get().General.TrustAnyForward {
		raddr = r.Header.Get("X-Forwarded-For")
	} else {
		raddr = xff.GetRemoteAddr(r)
	}
	if raddr == "" {
		raddr = r.RemoteAddr
	}
	host, _, err := net.SplitHostPort(raddr)
	if err != nil {
		host = raddr // no port
	}
	r.RemoteAddr = host

	if h.next != nil {
		h.next.ServeHTTP(w, r)
	}
}
