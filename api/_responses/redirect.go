package _responses

import "net/http"

// RedirectResponse points the client elsewhere. The response is never cached
// because the target changes whenever a new snapshot lands.
type RedirectResponse struct {
	ToUrl      string
	StatusCode int
}

func Redirect(url string) *RedirectResponse {
	return &RedirectResponse{ToUrl: url, StatusCode: http.StatusFound}
}
