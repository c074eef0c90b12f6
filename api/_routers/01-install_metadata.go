package _routers

import (
	"context"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common"
)

// RequestCounter hands out ids that are unique for the life of the process.
type RequestCounter struct {
	lastId atomic.Uint64
}

func (c *RequestCounter) NextId() string {
	return "SNAP-" + strconv.FormatUint(c.lastId.Add(1)-1, 10)
}

type InstallMetadataRouter struct {
	next       http.Handler
	actionName string
	counter    *RequestCounter
}

func NewInstallMetadataRouter(actionName string, counter *RequestCounter, next http.Handler) *InstallMetadataRouter {
	return &InstallMetadataRouter{
		next:       next,
		actionName: actionName,
		counter:    counter,
	}
}

func (i *InstallMetadataRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestId := i.counter.NextId()
	w.Header().Set("X-Request-Id", requestId)
	logger := logrus.WithFields(logrus.Fields{
		"method":    r.Method,
		"resource":  r.URL.Path,
		"requestId": requestId,
		"action":    i.actionName,
		"userAgent": r.UserAgent(),
	})
	if r.Method == http.MethodPost {
		logger = logger.WithFields(logrus.Fields{
			"contentType":   r.Header.Get("Content-Type"),
			"contentLength": r.ContentLength,
		})
	}

	ctx := r.Context()
	ctx = context.WithValue(ctx, common.ContextRequestId, requestId)
	ctx = context.WithValue(ctx, common.ContextAction, i.actionName)
	ctx = context.WithValue(ctx, common.ContextLogger, logger)
	ctx = context.WithValue(ctx, common.ContextRequestStart, time.Now())
	r = r.WithContext(ctx)

	if i.next != nil {
		i.next.ServeHTTP(w, r)
	}
}

func GetActionName(r *http.Request) string {
	x, ok := r.Context().Value(common.ContextAction).(string)
	if !ok {
		return "<UNKNOWN>"
	}
	return x
}

func GetLogger(r *http.Request) *logrus.Entry {
	x, ok := r.Context().Value(common.ContextLogger).(*logrus.Entry)
	if !ok {
		return logrus.WithField("requestId", "<none>")
	}
	return x
}
