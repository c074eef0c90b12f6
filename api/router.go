package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/snapshot-repo/api/_responses"
)

func buildPrimaryRouter() *httprouter.Router {
	router := httprouter.New()
	router.RedirectTrailingSlash = false // dates never end in a slash
	router.RedirectFixedPath = false     // don't fix case
	router.MethodNotAllowed = http.HandlerFunc(methodNotAllowedFn)
	router.HandleOPTIONS = true
	router.PanicHandler = panicFn
	return router
}

func writeJsonError(w http.ResponseWriter, statusCode int, res *_responses.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	b, err := json.Marshal(res)
	if err != nil {
		sentry.CaptureException(fmt.Errorf("error preparing error response: %v", err))
		logrus.Errorf("error preparing error response: %v", err)
		return
	}
	_, _ = w.Write(b)
}

func methodNotAllowedFn(w http.ResponseWriter, r *http.Request) {
	writeJsonError(w, http.StatusMethodNotAllowed, _responses.MethodNotAllowed())
}

func panicFn(w http.ResponseWriter, r *http.Request, i interface{}) {
	logrus.Errorf("Panic received on %s %s: %s", r.Method, r.URL.Path, i)

	//goland:noinspection GoTypeAssertionOnErrors
	if e, ok := i.(error); ok {
		sentry.CaptureException(e)
	} else {
		sentry.CaptureMessage(fmt.Sprintf("Unknown panic received: %T %s %+v", i, i, i))
	}

	writeJsonError(w, http.StatusInternalServerError, _responses.InternalServerError(errors.New("unexpected error").Error()))
}
