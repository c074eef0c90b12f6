package common

type SnapContextKey string

const (
	ContextLogger       SnapContextKey = "snap.logger"
	ContextAction       SnapContextKey = "snap.action"
	ContextRequest      SnapContextKey = "snap.request"
	ContextRequestId    SnapContextKey = "snap.request_id"
	ContextRequestStart SnapContextKey = "snap.request_start"
	ContextStatusCode   SnapContextKey = "snap.status_code"
)
