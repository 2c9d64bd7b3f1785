package app

import (
	"context"
	"errors"
	"fmt"

	"slack-upload/internal/slack"
)

var (
	ErrMissingToken    = errors.New("slack API token is required")
	ErrMissingTitle    = errors.New("title is required")
	ErrMissingChannel  = errors.New("channel is required")
	ErrMissingFilePath = errors.New("file path is required")
	ErrNotRegularFile  = errors.New("not a regular file")
	ErrStepPanicked    = errors.New("upload step panicked")
)

// FileAccessError reports a local file that is missing, not a regular file,
// or unreadable.
type FileAccessError struct {
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	if e == nil {
		return "file access failed"
	}
	return fmt.Sprintf("cannot access %s: %v", e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrorKind classifies err for log output.
func ErrorKind(err error) string {
	var fileErr *FileAccessError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &fileErr):
		return "file_access"
	case slack.IsRemoteAPIError(err):
		return "remote_api"
	case slack.IsNetworkError(err):
		return "network"
	default:
		return "internal"
	}
}

func errorChain(err error) []string {
	var chain []string
	for err != nil {
		chain = append(chain, err.Error())
		err = errors.Unwrap(err)
	}
	return chain
}
