package r0

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/t2bot/snapshot-repo/api/_responses"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/rcontext"
	"github.com/t2bot/snapshot-repo/snapshots"
	"github.com/t2bot/snapshot-repo/types"
)

const maxMemoryBytes = 32 << 20 // 32mb, the rest spills to disk

func (h *Handlers) Upload(r *http.Request, rctx rcontext.RequestContext) interface{} {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, h.MaxUploadBytes)
	}
	defer r.Body.Close()

	date, hash, data, err := readUploadForm(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return _responses.RequestTooLarge()
		}
		if errors.Is(err, common.ErrMissingField) || errors.Is(err, common.ErrInvalidHash) {
			return _responses.BadRequest(err.Error())
		}
		rctx.Log.Warn("Error reading upload form: ", err)
		return _responses.BadRequest("unable to read form body")
	}
	// ':' separates the key namespace from the date in the metadata stores.
	if date == types.LatestKey || strings.ContainsAny(date, "/:") {
		return _responses.BadRequest("invalid date")
	}

	result, err := h.Ingest.Execute(rctx, date, hash, data)
	if err != nil {
		if errors.Is(err, common.ErrHashMismatch) {
			return _responses.BadRequest(err.Error())
		}
		rctx.Log.Error("Error ingesting snapshot: ", err)
		sentry.CaptureException(err)
		return _responses.InternalServerError("unexpected error storing snapshot")
	}

	rctx.Log.Infof("Snapshot accepted (changed=%t, notifications=%d)", result.Changed, result.Enqueued)
	return _responses.Uploaded()
}

// readUploadForm accepts multipart (file part or plain field) and urlencoded bodies.
// UploadRead answers non-POST requests to the upload path the same way a bad token would.
func UploadRead(r *http.Request, rctx rcontext.RequestContext) interface{} {
	return _responses.Unauthorized()
}

func readUploadForm(r *http.Request) (string, string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
			return "", "", nil, err
		}
		defer r.MultipartForm.RemoveAll()
	} else if err := r.ParseForm(); err != nil {
		return "", "", nil, err
	}

	date := r.PostFormValue("date")
	hash := r.PostFormValue("hash")
	if date == "" {
		return "", "", nil, missing("date")
	}
	if hash == "" {
		return "", "", nil, missing("hash")
	}
	if !snapshots.ValidHash(hash) {
		return "", "", nil, common.ErrInvalidHash
	}

	var data []byte
	if r.MultipartForm != nil && len(r.MultipartForm.File["file"]) > 0 {
		f, err := r.MultipartForm.File["file"][0].Open()
		if err != nil {
			return "", "", nil, err
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return "", "", nil, err
		}
	} else {
		data = []byte(r.PostFormValue("file"))
	}
	if len(data) == 0 {
		return "", "", nil, missing("file")
	}
	return date, hash, data, nil
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", common.ErrMissingField, field)
}
