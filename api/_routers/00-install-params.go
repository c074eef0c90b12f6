package _routers

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// GetParam reads a named route parameter. Catch-all values lose their leading slash.
func GetParam(name string, r *http.Request) string {
	params := httprouter.ParamsFromContext(r.Context())
	return strings.TrimPrefix(params.ByName(name), "/")
}
