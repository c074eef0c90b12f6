package r0

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/getsentry/sentry-go"
	"github.com/t2bot/snapshot-repo/api/_responses"
	"github.com/t2bot/snapshot-repo/api/_routers"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/snapshots"
)

// File serves a stored blob by object name for deployments without a separate blob host.
func (h *Handlers) File(r *http.Request, rctx rcontext.RequestContext) interface{} {
	object := _routers.GetParam("object", r)
	hash, ok := strings.CutSuffix(object, "."+h.Extension)
	if !ok || !snapshots.ValidHash(hash) {
		return _responses.NotFoundError(object + " object not found")
	}

	f, err := h.Blobs.Download(rctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrBlobNotFound) {
			return _responses.NotFoundError(object + " object not found")
		}
		rctx.Log.Error("Error opening blob: ", err)
		sentry.CaptureException(err)
		return _responses.InternalServerError("unexpected error opening snapshot")
	}

	mtype, err := mimetype.DetectReader(f)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	var size int64
	if err == nil {
		size, err = f.Seek(0, io.SeekEnd)
	}
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = f.Close()
		rctx.Log.Error("Error inspecting blob: ", err)
		sentry.CaptureException(err)
		return _responses.InternalServerError("unexpected error reading snapshot")
	}

	return &_responses.SharedCacheResponse{
		Payload: &_responses.DownloadResponse{
			ContentType: mtype.String(),
			Filename:    object,
			SizeBytes:   size,
			Data:        f,
		},
		MaxAgeSeconds: h.CacheTtlSeconds,
	}
}
