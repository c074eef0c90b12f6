package _responses

import "io"

type EmptyResponse struct{}

type HtmlResponse struct {
	HTML string
}

// TextResponse is a bare text/plain reply with an explicit status.
type TextResponse struct {
	StatusCode int
	Text       string
}

func Unauthorized() *TextResponse {
	return &TextResponse{StatusCode: 403, Text: "Unauthorized"}
}

func Uploaded() *TextResponse {
	return &TextResponse{StatusCode: 201, Text: "Uploaded"}
}

// SharedCacheResponse marks Payload as storable by shared caches for MaxAgeSeconds.
type SharedCacheResponse struct {
	Payload       interface{}
	MaxAgeSeconds int
}

type DownloadResponse struct {
	ContentType string
	Filename    string
	SizeBytes   int64
	Data        io.ReadCloser
}
