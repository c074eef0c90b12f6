package r0

import (
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/t2bot/snapshot-repo/api/_responses"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/snapshots"
	"github.com/t2bot/snapshot-repo/templating"
	"github.com/t2bot/snapshot-repo/types"
)

type ListEntry struct {
	Date string `json:"date"`
	Hash string `json:"hash"`
}

type ListResponse struct {
	Latest *string     `json:"latest"`
	List   []ListEntry `json:"list"`
}

func (h *Handlers) shared(payload interface{}) *_responses.SharedCacheResponse {
	return &_responses.SharedCacheResponse{Payload: payload, MaxAgeSeconds: h.CacheTtlSeconds}
}

func (h *Handlers) resolveError(ctx rcontext.RequestContext, err error) *_responses.ErrorResponse {
	if snapshots.IsNotFound(err) {
		return _responses.NotFoundError(err.Error())
	}
	ctx.Log.Error("Error resolving snapshot: ", err)
	sentry.CaptureException(err)
	return _responses.InternalServerError("unexpected error resolving snapshot")
}

func (h *Handlers) Landing(r *http.Request, rctx rcontext.RequestContext) interface{} {
	model := templating.LandingModel{Date: "unavailable"}
	record, err := h.Resolver.Resolve(rctx, types.LatestKey)
	if err != nil && !snapshots.IsNotFound(err) {
		return h.resolveError(rctx, err)
	}
	if record != nil {
		model.Date = record.Date
		model.FileUrl = record.FileUrl
	} else {
		rctx.Log.Warn("Rendering landing page without a snapshot: ", err)
	}

	tmpl, err := templating.GetTemplate("index")
	if err != nil {
		rctx.Log.Error("Error loading landing template: ", err)
		sentry.CaptureException(err)
		return _responses.InternalServerError("unable to load template")
	}
	html, err := templating.RenderLanding(tmpl, model)
	if err != nil {
		rctx.Log.Error("Error rendering landing page: ", err)
		sentry.CaptureException(err)
		return _responses.InternalServerError("unable to render page")
	}

	res := &_responses.HtmlResponse{HTML: string(html)}
	if record == nil {
		return res // don't cache a page without a snapshot
	}
	return h.shared(res)
}

func (h *Handlers) Latest(r *http.Request, rctx rcontext.RequestContext) interface{} {
	record, err := h.Resolver.Resolve(rctx, types.LatestKey)
	if err != nil {
		if !snapshots.IsNotFound(err) {
			sentry.CaptureException(err)
		}
		rctx.Log.Warn("Unable to resolve latest snapshot: ", err)
		return _responses.InternalServerError(err.Error())
	}
	return _responses.Redirect(record.FileUrl)
}

func (h *Handlers) LatestJson(r *http.Request, rctx rcontext.RequestContext) interface{} {
	record, err := h.Resolver.Resolve(rctx, types.LatestKey)
	if err != nil {
		return h.resolveError(rctx, err)
	}
	return h.shared(record)
}

func (h *Handlers) List(r *http.Request, rctx rcontext.RequestContext) interface{} {
	entries, err := h.Meta.List(rctx)
	if err != nil {
		rctx.Log.Error("Error listing snapshots: ", err)
		sentry.CaptureException(err)
		return _responses.InternalServerError("unexpected error listing snapshots")
	}

	res := &ListResponse{List: make([]ListEntry, 0, len(entries))}
	for _, e := range entries {
		if e.Key == types.LatestKey {
			hash := e.Hash
			res.Latest = &hash
			continue
		}
		res.List = append(res.List, ListEntry{Date: e.Key, Hash: e.Hash})
	}
	return h.shared(res)
}

// ByDate serves every path no other route claims; the whole path is the date key.
func (h *Handlers) ByDate(r *http.Request, rctx rcontext.RequestContext) interface{} {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return _responses.MethodNotAllowed()
	}
	dateKey := strings.TrimPrefix(r.URL.Path, "/")
	if dateKey == "" {
		return _responses.NotFoundError("Not found")
	}

	record, err := h.Resolver.Resolve(rctx, dateKey)
	if err != nil {
		return h.resolveError(rctx, err)
	}
	return h.shared(record)
}
