package _routers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/alioygur/is"
	"github.com/t2bot/snapshot-repo/api/_responses"
	"github.com/t2bot/snapshot-repo/common"
	"github.com/t2bot/snapshot-repo/common/rcontext"
)

type GeneratorFn = func(r *http.Request, ctx rcontext.RequestContext) interface{}

type RContextRouter struct {
	generatorFn GeneratorFn
	next        http.Handler
}

func NewRContextRouter(generatorFn GeneratorFn, next http.Handler) *RContextRouter {
	return &RContextRouter{generatorFn: generatorFn, next: next}
}

func (c *RContextRouter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := GetLogger(r)
	rctx := rcontext.RequestContext{
		Context: r.Context(),
		Log:     log,
		Request: r,
	}

	var res interface{}
	res = c.generatorFn(r, rctx)
	if res == nil {
		res = &_responses.EmptyResponse{}
	}

	headers := w.Header()

	if sharedRes, isShared := res.(*_responses.SharedCacheResponse); isShared {
		headers.Set("Cache-Control", "s-maxage="+strconv.Itoa(sharedRes.MaxAgeSeconds))
		res = sharedRes.Payload
	}

	switch typedRes := res.(type) {
	case *_responses.HtmlResponse:
		log.Infof("Replying with result: %T <%d chars of html>", res, len(typedRes.HTML))
		headers.Set("Content-Type", "text/html; charset=UTF-8")
		r = writeStatusCode(w, r, http.StatusOK)
		if _, err := w.Write([]byte(typedRes.HTML)); err != nil {
			panic(errors.New("error sending HtmlResponse: " + err.Error()))
		}
	case *_responses.TextResponse:
		log.Infof("Replying with result: %d %s", typedRes.StatusCode, typedRes.Text)
		headers.Set("Content-Type", "text/plain; charset=UTF-8")
		r = writeStatusCode(w, r, typedRes.StatusCode)
		if _, err := w.Write([]byte(typedRes.Text)); err != nil {
			panic(errors.New("error sending TextResponse: " + err.Error()))
		}
	case *_responses.RedirectResponse:
		log.Infof("Redirecting to %s", typedRes.ToUrl)
		headers.Set("Location", typedRes.ToUrl)
		headers.Set("Cache-Control", "no-store")
		r = writeStatusCode(w, r, typedRes.StatusCode)
	case *_responses.DownloadResponse:
		log.Infof("Replying with download: %s (%s)", typedRes.Filename, typedRes.ContentType)
		defer typedRes.Data.Close()
		headers.Set("Content-Type", typedRes.ContentType)
		if is.ASCII(typedRes.Filename) {
			headers.Set("Content-Disposition", "inline; filename="+url.QueryEscape(typedRes.Filename))
		} else {
			headers.Set("Content-Disposition", "inline; filename*=utf-8''"+url.QueryEscape(typedRes.Filename))
		}
		if typedRes.SizeBytes > 0 {
			headers.Set("Content-Length", strconv.FormatInt(typedRes.SizeBytes, 10))
		}
		r = writeStatusCode(w, r, http.StatusOK)
		written, err := io.Copy(w, typedRes.Data)
		if err != nil {
			panic(err) // blow up this request
		}
		if typedRes.SizeBytes > 0 && written != typedRes.SizeBytes {
			panic(fmt.Errorf("mismatch transfer size: %d expected, %d sent", typedRes.SizeBytes, written))
		}
	default:
		log.Infof("Replying with result: %T %+v", res, res)
		statusCode := http.StatusOK
		if errRes, isError := res.(*_responses.ErrorResponse); isError {
			statusCode = statusCodeFor(errRes)
			headers.Del("Cache-Control")
		}

		b := &bytes.Buffer{}
		encoder := json.NewEncoder(b)
		encoder.SetEscapeHTML(false)
		if err := encoder.Encode(res); err != nil {
			panic(err) // blow up this request
		}
		body := bytes.TrimRight(b.Bytes(), "\n")

		headers.Set("Content-Type", "application/json")
		headers.Set("Content-Length", strconv.Itoa(len(body)))
		r = writeStatusCode(w, r, statusCode)
		if _, err := w.Write(body); err != nil {
			panic(errors.New("error sending JSON response: " + err.Error()))
		}
	}

	if c.next != nil {
		c.next.ServeHTTP(w, r)
	}
}

func statusCodeFor(errRes *_responses.ErrorResponse) int {
	switch errRes.InternalCode {
	case common.ErrCodeUnauthorized:
		return http.StatusForbidden
	case common.ErrCodeNotFound:
		return http.StatusNotFound
	case common.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case common.ErrCodeBadRequest:
		return http.StatusBadRequest
	case common.ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case common.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case common.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default: // Treat as unknown (a generic server error)
		return http.StatusInternalServerError
	}
}

func GetStatusCode(r *http.Request) int {
	x, ok := r.Context().Value(common.ContextStatusCode).(int)
	if !ok {
		return http.StatusOK
	}
	return x
}

func writeStatusCode(w http.ResponseWriter, r *http.Request, statusCode int) *http.Request {
	w.WriteHeader(statusCode)
	return withStatusCode(r, statusCode)
}

func withStatusCode(r *http.Request, statusCode int) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), common.ContextStatusCode, statusCode))
}
