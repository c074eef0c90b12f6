package _responses

import "github.com/t2bot/snapshot-repo/common"

// ErrorResponse renders as {"error": "..."}. InternalCode picks the status code.
type ErrorResponse struct {
	Message      string `json:"error"`
	InternalCode string `json:"-"`
}

func InternalServerError(message string) *ErrorResponse {
	return &ErrorResponse{message, common.ErrCodeUnknown}
}

func MethodNotAllowed() *ErrorResponse {
	return &ErrorResponse{"Method Not Allowed", common.ErrCodeMethodNotAllowed}
}

func RateLimitReached() *ErrorResponse {
	return &ErrorResponse{"Rate Limited", common.ErrCodeRateLimited}
}

func NotFoundError(message string) *ErrorResponse {
	return &ErrorResponse{message, common.ErrCodeNotFound}
}

func RequestTooLarge() *ErrorResponse {
	return &ErrorResponse{"Too Large", common.ErrCodeTooLarge}
}

func BadRequest(message string) *ErrorResponse {
	return &ErrorResponse{message, common.ErrCodeBadRequest}
}

func ServiceUnavailable(message string) *ErrorResponse {
	return &ErrorResponse{message, common.ErrCodeUnavailable}
}
