package rcontext

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/common"
)

func Initial() RequestContext {
	return RequestContext{
		Context: context.Background(),
		Log:     logrus.WithFields(logrus.Fields{"nocontext": true}),
		Request: nil,
	}.populate()
}

// Wrap builds a RequestContext around an existing context and logger.
func Wrap(ctx context.Context, log *logrus.Entry) RequestContext {
	return RequestContext{
		Context: ctx,
		Log:     log,
	}.populate()
}

type RequestContext struct {
	context.Context

	// These are also stored on the context object itself
	Log     *logrus.Entry // snap.logger
	Request *http.Request // snap.request
}

func (c RequestContext) populate() RequestContext {
	c.Context = context.WithValue(c.Context, common.ContextLogger, c.Log)
	c.Context = context.WithValue(c.Context, common.ContextRequest, c.Request)
	return c
}

func (c RequestContext) ReplaceLogger(log *logrus.Entry) RequestContext {
	ctx := context.WithValue(c.Context, common.ContextLogger, log)
	return RequestContext{
		Context: ctx,
		Log:     log,
		Request: c.Request,
	}
}

func (c RequestContext) LogWithFields(fields logrus.Fields) RequestContext {
	return c.ReplaceLogger(c.Log.WithFields(fields))
}

// Detached returns a copy whose context is not cancelled when the request ends.
func (c RequestContext) Detached() RequestContext {
	return RequestContext{
		Context: context.WithoutCancel(c.Context),
		Log:     c.Log,
		Request: c.Request,
	}
}
