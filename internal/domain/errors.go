package domain

import "errors"

var (
	// ErrNotFound means no link row matches the requested subject and URL.
	ErrNotFound = errors.New("link not found")
	// ErrCrawlingFailed wraps any failure after a job was claimed.
	ErrCrawlingFailed = errors.New("crawling failed")
	// ErrNavigation means a page could not be loaded after all retries.
	ErrNavigation = errors.New("navigation failed")
	// ErrInvalidInput flags a malformed request.
	ErrInvalidInput = errors.New("invalid input")
)

// Error codes exposed to API callers.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeCrawlingFailed = "CRAWLING_FAILED"
	CodeInvalidInput   = "INVALID_INPUT_VALUE"
	CodeInternal       = "INTERNAL_SERVER_ERROR"
)

// CodeOf maps an error to its API error code.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrCrawlingFailed), errors.Is(err, ErrNavigation):
		return CodeCrawlingFailed
	default:
		return CodeInternal
	}
}
