package slack

import (
	"errors"
	"fmt"
	"net/url"
)

// RemoteAPIError reports a call that reached Slack but was rejected, either
// with ok=false in the JSON envelope or with an unexpected HTTP status.
type RemoteAPIError struct {
	Method     string
	StatusCode int
	Detail     string
}

func (e *RemoteAPIError) Error() string {
	if e == nil {
		return "slack API call failed"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed (HTTP %d): %s", e.Method, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s failed: %s", e.Method, e.Detail)
}

// NetworkError reports a transport-level failure: DNS, connect, TLS or a
// cancelled request.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "slack request failed"
	}
	return fmt.Sprintf("%s request to %s failed: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ContentReadError reports that the upload content could not be read while
// it was being streamed. It is a local failure, not a transport one.
type ContentReadError struct {
	FileName string
	Err      error
}

func (e *ContentReadError) Error() string {
	if e == nil {
		return "reading upload content failed"
	}
	return fmt.Sprintf("reading %s failed: %v", e.FileName, e.Err)
}

func (e *ContentReadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

func IsRemoteAPIError(err error) bool {
	var apiErr *RemoteAPIError
	return errors.As(err, &apiErr)
}

// redactQuery drops the query string from logged URLs; upload URLs and
// completion calls carry identifiers and comments there.
func redactQuery(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	clean.Fragment = ""
	return clean.String()
}
